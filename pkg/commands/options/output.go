package options

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/api"
	"tableflip.dev/diary/pkg/daylog"
	"tableflip.dev/diary/pkg/i18n"
	"tableflip.dev/diary/pkg/session"
)

// OutputOptions
type OutputOptions struct {
	JSON bool
	// Msgs localizes errors; nil leaves them as they are.
	Msgs *i18n.Printer
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
}

// Localize replaces server and session failures with the message a user
// should see, keeping the original error wrapped.
func (o *OutputOptions) Localize(err error, fallback string) error {
	if err == nil || o.Msgs == nil {
		return err
	}
	switch {
	case errors.Is(err, session.ErrLoginRequired), errors.Is(err, api.ErrUnauthorized):
		return fmt.Errorf("%s: %w", o.Msgs.Sprintf(i18n.MsgLoginRequired), err)
	case errors.Is(err, api.ErrRequestFailed):
		return fmt.Errorf("%s: %w", o.Msgs.Error(err, fallback), err)
	case errors.Is(err, daylog.ErrValidationSkipped):
		return fmt.Errorf("%s: %w", o.Msgs.Sprintf(i18n.MsgEmptyCompose), err)
	}
	return err
}

func (o *OutputOptions) HandleError(err error) error {
	if o.JSON && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		b, err := json.Marshal(out)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(color.Output, string(b))
		return nil
	}
	return err
}
