package videogate

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"recruitgate/internal/models"
	"recruitgate/internal/repositories"
	"recruitgate/internal/services"
	"recruitgate/pkg/utils"
)

// Actor is the authenticated caller. Operators act for any candidate;
// everyone else only for the candidate profile their user owns.
type Actor struct {
	UserID   string
	Operator bool
}

type IdentityProvider interface {
	ResolveIdentity(ctx context.Context, userID string) (*models.Identity, error)
}

// ownWorker returns the worker id the actor is limited to, or "" for
// operators.
func (s *Service) ownWorker(ctx context.Context, actor Actor) (string, error) {
	if actor.Operator {
		return "", nil
	}
	if strings.TrimSpace(actor.UserID) == "" {
		return "", services.ErrNotVideoOwner
	}

	identity, err := s.identities.ResolveIdentity(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return "", services.ErrIdentityNotFound
		}
		return "", utils.ErrorHandlerWithFields(err, "failed to resolve caller identity", logrus.Fields{
			"user_id": actor.UserID,
		})
	}
	if identity.WorkerID == nil || *identity.WorkerID == "" {
		return "", services.ErrNotVideoOwner
	}
	return *identity.WorkerID, nil
}

// resolveScope binds scope to what actor may touch. A missing worker id
// defaults to the actor's own. A named application must exist, must belong
// to the actor, and must match any worker and process also given; its
// worker and process fill the blanks.
func (s *Service) resolveScope(ctx context.Context, actor Actor, scope models.VideoScope) (models.VideoScope, error) {
	scope.WorkerID = strings.TrimSpace(scope.WorkerID)
	scope.ProcessID = strings.TrimSpace(scope.ProcessID)
	scope.ApplicationID = strings.TrimSpace(scope.ApplicationID)

	owner, err := s.ownWorker(ctx, actor)
	if err != nil {
		return scope, err
	}
	if owner != "" {
		if scope.WorkerID == "" {
			scope.WorkerID = owner
		} else if scope.WorkerID != owner {
			s.log.WithFields(logrus.Fields{
				"user_id":   actor.UserID,
				"worker_id": scope.WorkerID,
			}).Warn("caller tried to act for another candidate")
			return scope, services.ErrNotVideoOwner
		}
	}

	if scope.ApplicationID == "" {
		return scope, nil
	}

	app, err := s.store.GetApplication(ctx, scope.ApplicationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNoRows) {
			return scope, services.ErrApplicationNotFound
		}
		return scope, utils.ErrorHandlerWithFields(err, "failed to load application", logrus.Fields{
			"application_id": scope.ApplicationID,
		})
	}
	if owner != "" && app.WorkerID != owner {
		return scope, services.ErrNotVideoOwner
	}
	if scope.WorkerID == "" {
		scope.WorkerID = app.WorkerID
	}
	if scope.ProcessID == "" {
		scope.ProcessID = app.ProcessID
	}
	if app.WorkerID != scope.WorkerID || app.ProcessID != scope.ProcessID {
		return scope, services.ErrApplicationScope
	}
	return scope, nil
}

// visible hides other candidates' videos from a non-operator as if they did
// not exist.
func (s *Service) visible(ctx context.Context, actor Actor, video *models.VideoRequirement) error {
	owner, err := s.ownWorker(ctx, actor)
	if err != nil {
		return err
	}
	if owner != "" && video.WorkerID != owner {
		return services.ErrVideoNotFound
	}
	return nil
}
