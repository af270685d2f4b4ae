package handler

import (
	"context"
	"net/http"

	"github.com/hazina/sacco-engine/internal/domain"
	"github.com/hazina/sacco-engine/pkg/response"
)

type contextKey string

const actorKey contextKey = "actor"

// IdentityMiddleware resolves the caller from the gateway-injected headers.
// The session service upstream has already authenticated the member; requests
// arriving without the headers never passed through it.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		memberNo := r.Header.Get("X-Member-No")
		role := domain.Role(r.Header.Get("X-User-Role"))

		if memberNo == "" {
			response.Unauthorized(w, "Missing X-Member-No header")
			return
		}

		switch role {
		case domain.RoleMember, domain.RoleAdmin, domain.RoleLedger:
		default:
			response.Unauthorized(w, "Missing or unknown X-User-Role header")
			return
		}

		actor := domain.Actor{MemberNo: memberNo, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	})
}

func actorFrom(r *http.Request) domain.Actor {
	actor, _ := r.Context().Value(actorKey).(domain.Actor)
	return actor
}
