package courtctl

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// describe renders a status error with its domain reason and the localized
// message when the server sent them.
func describe(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	var reason, localized string
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
		case *errdetails.LocalizedMessage:
			localized = d.GetMessage()
		}
	}
	message := st.Message()
	if localized != "" {
		message = localized
	}
	if reason == "" {
		return fmt.Errorf("%s: %s", st.Code(), message)
	}
	return fmt.Errorf("%s (%s): %s", reason, st.Code(), message)
}
