package court

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/decicourt/internal/platform/errors"
	"github.com/louisbranch/decicourt/internal/platform/grpc/pagination"
	"github.com/louisbranch/decicourt/internal/services/court/api/grpc/rpc"
	"github.com/louisbranch/decicourt/internal/services/court/core/filter"
	"github.com/louisbranch/decicourt/internal/services/court/storage"
)

const (
	defaultListEventsPageSize = 50
	maxListEventsPageSize     = 200
)

var orderByConfig = pagination.OrderByConfig{
	Default: "seq",
	Allowed: []string{"seq", "seq desc"},
}

// ListEvents pages through the audit journal. filter accepts AIP-160
// expressions over type, actor_type, actor_id, entity_type, entity_id,
// case_id and ts.
func (s *Service) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	orderBy, err := pagination.NormalizeOrderBy(rpc.String(in, "order_by"), orderByConfig)
	if err != nil {
		return nil, apperrors.WithMetadata(apperrors.CodeInvalidArgument, err.Error(), map[string]string{"field": "order_by"})
	}
	descending := orderBy == "seq desc"

	rawFilter := rpc.String(in, "filter")
	cond, err := filter.Parse(rawFilter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEventFilterInvalid, err.Error(), err)
	}

	size, err := rpc.Uint(in, "page_size")
	if err != nil {
		return nil, err
	}
	pageSize := pagination.ClampPageSize(int32(min(size, maxListEventsPageSize)), pagination.PageSizeConfig{
		Default: defaultListEventsPageSize,
		Max:     maxListEventsPageSize,
	})

	scope := rawFilter + "|" + orderBy
	var cursor uint64
	if raw := rpc.String(in, "page_token"); raw != "" {
		token, err := pagination.Decode(raw, descending, scope)
		if err != nil {
			message := "Invalid page token"
			if errors.Is(err, pagination.ErrTokenScope) {
				message = "Page token does not match filter or order_by"
			}
			return nil, apperrors.Wrap(apperrors.CodePageTokenInvalid, message, err)
		}
		cursor = token.Seq
	}

	page, err := s.journal.ListEventsPage(ctx, storage.ListEventsPageRequest{
		CourtID:      s.courtID,
		PageSize:     pageSize,
		CursorSeq:    cursor,
		Descending:   descending,
		FilterClause: cond.Clause,
		FilterParams: cond.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]*structpb.Value, 0, len(page.Events))
	for _, evt := range page.Events {
		view, err := eventView(evt)
		if err != nil {
			return nil, err
		}
		events = append(events, structpb.NewStructValue(view))
	}
	out := &structpb.Struct{Fields: map[string]*structpb.Value{
		"events":     structpb.NewListValue(&structpb.ListValue{Values: events}),
		"total_size": structpb.NewNumberValue(float64(page.TotalCount)),
	}}
	if page.HasNextPage && len(page.Events) > 0 {
		last := page.Events[len(page.Events)-1].Seq
		next, err := pagination.Encode(pagination.NewToken(last, descending, scope))
		if err != nil {
			return nil, err
		}
		out.Fields["next_page_token"] = structpb.NewStringValue(next)
	}
	return out, nil
}

// VerifyJournal recomputes the hash chain and signatures of the journal.
func (s *Service) VerifyJournal(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	report, err := s.journal.VerifyJournal(ctx, s.courtID)
	if err != nil {
		return nil, fmt.Errorf("verify journal: %w", err)
	}
	fields := map[string]any{
		"court_id": report.CourtID,
		"ok":       report.OK(),
		"checked":  rpc.Amount(report.Checked),
		"last_seq": rpc.Amount(report.LastSeq),
	}
	if !report.OK() {
		fields["broken_seq"] = rpc.Amount(report.BrokenSeq)
		fields["reason"] = report.Reason
	}
	return respond(fields)
}
