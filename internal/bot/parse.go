package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultDeliveries = 5
	maxDeliveries     = 50
)

// ParseIDArg extracts a numeric config ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("config ID is required")
	}
	first := strings.Fields(s)[0]
	id, err := strconv.ParseInt(strings.TrimPrefix(first, "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid config ID %q", first)
	}
	return id, nil
}

// ParseResetArgs extracts a config ID and a track name. Track names may
// contain spaces.
func ParseResetArgs(args string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("usage: /reset <config_id> <track>")
	}
	id, err := ParseIDArg(parts[0])
	if err != nil {
		return 0, "", err
	}
	name := strings.TrimSpace(parts[1])
	if name == "" {
		return 0, "", fmt.Errorf("track name cannot be empty")
	}
	return id, name, nil
}

// ParseDeliveriesArgs extracts a config ID and an optional count.
func ParseDeliveriesArgs(args string) (int64, int, error) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return 0, 0, fmt.Errorf("usage: /deliveries <config_id> [count]")
	}
	id, err := ParseIDArg(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) == 1 {
		return id, defaultDeliveries, nil
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 1 || n > maxDeliveries {
		return 0, 0, fmt.Errorf("count must be between 1 and %d", maxDeliveries)
	}
	return id, n, nil
}

// callbackData is the payload of an inline button: action:config[:track].
type callbackData struct {
	Action   string
	ConfigID int64
	Track    int
}

func (d callbackData) String() string {
	if d.Track < 0 {
		return fmt.Sprintf("%s:%d", d.Action, d.ConfigID)
	}
	return fmt.Sprintf("%s:%d:%d", d.Action, d.ConfigID, d.Track)
}

// parseCallbackData is the inverse of callbackData.String. A missing track
// index is -1.
func parseCallbackData(data string) (callbackData, error) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 {
		return callbackData{}, fmt.Errorf("malformed callback %q", data)
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return callbackData{}, fmt.Errorf("malformed callback %q", data)
	}
	d := callbackData{Action: parts[0], ConfigID: id, Track: -1}
	if len(parts) == 3 {
		idx, err := strconv.Atoi(parts[2])
		if err != nil || idx < 0 {
			return callbackData{}, fmt.Errorf("malformed callback %q", data)
		}
		d.Track = idx
	}
	return d, nil
}
