package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ripple-dev/ripple/pkg/ripple"
	"github.com/ripple-dev/ripple/pkg/server"
)

// thermostatProgram is the sample session program hosted by `ripple serve`.
// Clients write the temp_c and unit cells; the session pushes a formatted
// display string whenever either changes.
func thermostatProgram(sess *server.Session) error {
	tempC := sess.Input("temp_c", json.RawMessage("20"))
	unit := sess.Input("unit", json.RawMessage(`"celsius"`))

	celsius := ripple.NewExpr(sess.Graph(), func() (float64, error) {
		var c float64
		if err := json.Unmarshal(tempC.Get(), &c); err != nil {
			return 0, fmt.Errorf("temp_c: %w", err)
		}
		return c, nil
	})

	fahrenheit := ripple.NewExpr(sess.Graph(), func() (float64, error) {
		c, err := celsius.Get()
		if err != nil {
			return 0, err
		}
		return c*9/5 + 32, nil
	})

	display := ripple.NewExpr(sess.Graph(), func() (string, error) {
		var u string
		if err := json.Unmarshal(unit.Get(), &u); err != nil {
			return "", fmt.Errorf("unit: %w", err)
		}
		switch strings.ToLower(u) {
		case "celsius":
			c, err := celsius.Get()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%.1f°C", c), nil
		case "fahrenheit":
			f, err := fahrenheit.Get()
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%.1f°F", f), nil
		default:
			return "", fmt.Errorf("unit: %q is not celsius or fahrenheit", u)
		}
	})

	ripple.NewObserver(sess.Graph(), func() error {
		text, err := display.Get()
		if err != nil {
			return err
		}
		return sess.Emit("display", text)
	})

	return nil
}
