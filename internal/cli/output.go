package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/threatfox/internal/query"
	"github.com/usestring/threatfox/pkg/client"
)

// result prints the outcome of a query. A non-200 answer prints false.
func (d *deps) result(resp client.Response, err error) error {
	if err != nil {
		var se *client.StatusError
		if errors.As(err, &se) {
			slog.Error("ThreatFox request failed", "status", se.StatusCode, "error", err)
			_, werr := fmt.Fprintln(d.out, "false")
			return werr
		}
		return err
	}
	return d.print(resp)
}

// print writes v as indented JSON. With --jq, each value the expression
// produces is written instead.
func (d *deps) print(v any) error {
	if d.jq == "" {
		return d.writeJSON(v)
	}

	res, err := query.NewEngine().Apply(v, d.jq, query.Options{KeepNulls: true})
	if err != nil {
		return fmt.Errorf("--jq: %w", err)
	}
	for _, e := range res.Errors {
		slog.Warn("jq runtime error", "error", e)
	}
	for _, val := range res.Values {
		if err := d.writeJSON(val); err != nil {
			return err
		}
	}
	return nil
}

func (d *deps) writeJSON(v any) error {
	enc := json.NewEncoder(d.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// validateJQ rejects a bad --jq expression before any request is sent.
func (d *deps) validateJQ() error {
	if d.jq == "" {
		return nil
	}
	if err := query.NewEngine().ValidateExpression(d.jq); err != nil {
		return fmt.Errorf("--jq: %w", err)
	}
	return nil
}
