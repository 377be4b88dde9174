package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("decide: %w", New(CodeVoteAlreadyCommitted, "Already committed"))
	assert.ErrorIs(t, err, New(CodeVoteAlreadyCommitted, ""))
	assert.NotErrorIs(t, err, New(CodeVoteInvalid, ""))
	assert.Equal(t, CodeVoteAlreadyCommitted, CodeOf(err))
	assert.Equal(t, CodeUnknown, CodeOf(fmt.Errorf("plain")))
}

func TestGRPCCodeClasses(t *testing.T) {
	cases := map[Code]codes.Code{
		CodeCaseInvalidDefendant:    codes.InvalidArgument,
		CodeVerdictNotReady:         codes.FailedPrecondition,
		CodeJurorsUnavailable:       codes.ResourceExhausted,
		CodeAppealNotLosingParty:    codes.PermissionDenied,
		CodeCaseNotFound:            codes.NotFound,
		CodeReentrantCall:           codes.Aborted,
		CodeUnauthenticated:         codes.Unauthenticated,
		CodeLedgerInsufficientAllow: codes.FailedPrecondition,
		CodePayoutFailed:            codes.Internal,
		CodeJournalCorrupted:        codes.DataLoss,
	}
	for code, want := range cases {
		assert.Equal(t, want, code.GRPCCode(), "code %s", code)
	}
}

func TestGRPCStatusAttachesDetails(t *testing.T) {
	err := GRPCStatus(WithMetadata(CodeAppealDeadlinePassed, "Appeal deadline passed", map[string]string{"case_id": "1"}), "pt-BR")

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Equal(t, "Appeal deadline passed", st.Message())

	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	require.NotNil(t, info)
	require.NotNil(t, localized)
	assert.Equal(t, string(CodeAppealDeadlinePassed), info.GetReason())
	assert.Equal(t, Domain, info.GetDomain())
	assert.Equal(t, "1", info.GetMetadata()["case_id"])
	assert.Equal(t, "pt-BR", localized.GetLocale())
	assert.Equal(t, "O prazo de recurso expirou.", localized.GetMessage())
}

func TestGRPCStatusMapsContextAndUnknownErrors(t *testing.T) {
	assert.Nil(t, GRPCStatus(nil, ""))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(GRPCStatus(context.DeadlineExceeded, "")))
	assert.Equal(t, codes.Canceled, status.Code(GRPCStatus(fmt.Errorf("wait: %w", context.Canceled), "")))
	assert.Equal(t, codes.Internal, status.Code(GRPCStatus(fmt.Errorf("disk on fire"), "")))

	passthrough := status.Error(codes.Unavailable, "down")
	assert.Equal(t, passthrough, GRPCStatus(passthrough, ""))
}
