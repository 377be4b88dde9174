package sqlite

import (
	"fmt"

	"github.com/louisbranch/decicourt/internal/services/court/storage"
)

type listEventsPageSQLPlan struct {
	whereClause      string
	params           []any
	orderClause      string
	limitClause      string
	countWhereClause string
	countParams      []any
}

// buildListEventsPageSQLPlan fetches one row past the page so the caller can
// tell whether another page exists.
func buildListEventsPageSQLPlan(req storage.ListEventsPageRequest) listEventsPageSQLPlan {
	countWhereClause := "court_id = ?"
	countParams := []any{req.CourtID}
	if req.FilterClause != "" {
		countWhereClause += " AND " + req.FilterClause
		countParams = append(countParams, req.FilterParams...)
	}

	whereClause := countWhereClause
	params := append([]any(nil), countParams...)
	if req.CursorSeq > 0 {
		if req.Descending {
			whereClause += " AND seq < ?"
		} else {
			whereClause += " AND seq > ?"
		}
		params = append(params, int64(req.CursorSeq))
	}

	orderClause := "ORDER BY seq ASC"
	if req.Descending {
		orderClause = "ORDER BY seq DESC"
	}

	return listEventsPageSQLPlan{
		whereClause:      whereClause,
		params:           params,
		orderClause:      orderClause,
		limitClause:      fmt.Sprintf("LIMIT %d", req.PageSize+1),
		countWhereClause: countWhereClause,
		countParams:      countParams,
	}
}
