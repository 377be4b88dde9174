// Package court serves decicourt.court.v1.CourtService: juror registration,
// cases, commit-reveal voting, verdicts, appeals and the audit journal.
package court

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	"github.com/louisbranch/decicourt/internal/services/court/domain/command"
	courtdomain "github.com/louisbranch/decicourt/internal/services/court/domain/court"
	"github.com/louisbranch/decicourt/internal/services/court/domain/engine"
	"github.com/louisbranch/decicourt/internal/services/court/storage"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "decicourt.court.v1.CourtService"

// Processor executes commands and reads against the live court.
type Processor interface {
	Submit(ctx context.Context, cmd command.Command) (engine.Result, error)
	View(ctx context.Context, fn func(courtdomain.World)) error
}

// Config wires a Service.
type Config struct {
	CourtID   string
	Params    courtdomain.Params
	Processor Processor
	Journal   storage.EventQueryStore
	Now       func() time.Time
}

// Service implements the court API.
type Service struct {
	courtID   string
	params    courtdomain.Params
	processor Processor
	journal   storage.EventQueryStore
	now       func() time.Time
}

// NewService validates cfg.
func NewService(cfg Config) (*Service, error) {
	courtID := strings.TrimSpace(cfg.CourtID)
	if courtID == "" {
		return nil, errors.New("court id is required")
	}
	if cfg.Processor == nil {
		return nil, errors.New("processor is required")
	}
	if cfg.Journal == nil {
		return nil, errors.New("event journal is required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		courtID:   courtID,
		params:    cfg.Params,
		processor: cfg.Processor,
		journal:   cfg.Journal,
		now:       now,
	}, nil
}

// Register adds the service to server.
func Register(server grpc.ServiceRegistrar, s *Service) {
	desc := s.Desc()
	server.RegisterService(&desc, s)
}

// Desc describes every court method.
func (s *Service) Desc() grpc.ServiceDesc {
	return rpc.Service(ServiceName, map[string]rpc.Method{
		"RegisterAsJuror":    s.RegisterAsJuror,
		"UnregisterAsJuror":  s.UnregisterAsJuror,
		"CreateCase":         s.CreateCase,
		"CommitVote":         s.CommitVote,
		"RevealVote":         s.RevealVote,
		"ExecuteVerdict":     s.ExecuteVerdict,
		"Appeal":             s.Appeal,
		"GetCase":            s.GetCase,
		"GetCaseJurors":      s.GetCaseJurors,
		"GetJuror":           s.GetJuror,
		"GetJurorReputation": s.GetJurorReputation,
		"GetParams":          s.GetParams,
		"ListEvents":         s.ListEvents,
		"VerifyJournal":      s.VerifyJournal,
	})
}

// view runs fn against the live World and wraps processor failures.
func (s *Service) view(ctx context.Context, fn func(courtdomain.World)) error {
	if err := s.processor.View(ctx, fn); err != nil {
		return processorError(err)
	}
	return nil
}

func processorError(err error) error {
	switch {
	case errors.Is(err, engine.ErrProcessorStopped):
		return apperrors.Wrap(apperrors.CodeCourtUnavailable, "court is shutting down", err)
	case errors.Is(err, command.ErrPayloadInvalid),
		errors.Is(err, command.ErrTypeUnknown),
		errors.Is(err, command.ErrActorTypeInvalid):
		return apperrors.Wrap(apperrors.CodeInvalidArgument, err.Error(), err)
	case errors.Is(err, command.ErrActorIDRequired):
		return apperrors.Wrap(apperrors.CodeActorRequired, "Caller account is required", err)
	}
	if engine.IsNonRetryable(err) {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			metadata := map[string]string{"retryable": "false"}
			for k, v := range appErr.Metadata {
				metadata[k] = v
			}
			return &apperrors.Error{Code: appErr.Code, Message: appErr.Message, Metadata: metadata, Cause: err}
		}
	}
	return err
}

func rejectionError(cmd command.Command, rejection command.Rejection) error {
	return apperrors.WithMetadata(apperrors.Code(rejection.Code), rejection.Message, map[string]string{
		"command": string(cmd.Type),
	})
}

func notFound(caseID uint64) error {
	return apperrors.WithMetadata(apperrors.CodeCaseNotFound, "Case not found", map[string]string{
		"case_id": rpc.Amount(caseID),
	})
}

func respond(fields map[string]any) (*structpb.Struct, error) {
	return rpc.Response(fields)
}
