//go:build linux

package sdunit

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

func query(ctx context.Context, unit string) (Status, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	defer conn.Close()

	props, err := conn.GetUnitPropertiesContext(ctx, unit)
	if err != nil {
		if isNoSuchUnitErr(err) {
			return Status{Unit: unit, Active: "unknown", Sub: "not-found", Load: "not-found"}, nil
		}
		return Status{}, fmt.Errorf("failed to get status for %s: %w", unit, err)
	}
	var svc map[string]interface{}
	if strings.HasSuffix(unit, ".service") {
		// NRestarts and MainPID live on the Service interface; older
		// systemd versions lack them, which is not an error.
		svc, _ = conn.GetUnitTypePropertiesContext(ctx, unit, "Service")
	}
	return statusFromProps(unit, props, svc), nil
}
