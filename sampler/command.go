package sampler

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// CommandHelp describes the console commands, in display order.
var CommandHelp = []struct {
	Name string
	Help string
}{
	{"record", "start recording triggers"},
	{"stop", "stop recording"},
	{"play", "replay the recorded sequence"},
	{"clear", "forget the recorded sequence"},
	{"hit", "trigger keys: hit a s d"},
	{"volume", "show or set volume (0..1)"},
	{"rate", "show or set playback rate (1/16..16)"},
	{"keys", "list bound keys"},
	{"events", "list recorded events"},
	{"export", "render the recorded sequence to a wav file"},
	{"status", "show transport and engine state"},
	{"help", "list commands"},
}

// Exec runs one console line and returns the text to show. Transport
// commands that are not valid in the current state are reported, not
// treated as errors.
func (k *Kit) Exec(line string) (string, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "", nil
	}

	cmd, args := strings.ToLower(tokens[0]), tokens[1:]
	switch cmd {
	case "record", "stop", "play", "clear":
		c := Command(cmd)
		if !k.Session.Do(c) {
			return fmt.Sprintf("%s not available while %s", c, k.describeState()), nil
		}
		return k.describeState(), nil

	case "hit":
		if len(args) == 0 {
			return "", errors.Wrap(ErrBadArgument, "hit needs at least one key")
		}
		var out []string
		for _, a := range args {
			if k.Trigger(a) {
				out = append(out, Normalize(a))
			} else {
				out = append(out, "-")
			}
		}
		return strings.Join(out, " "), nil

	case "volume", "rate":
		if len(args) == 0 {
			v, _ := k.Level(cmd)
			return formatLevel(v), nil
		}
		v, err := parseLevel(args[0])
		if err != nil {
			return "", err
		}
		if !k.GetSetter(cmd)(v) {
			return "", errors.Wrapf(ErrBadArgument, "%s out of range: %v", cmd, v)
		}
		v, _ = k.Level(cmd)
		return formatLevel(v), nil

	case "keys":
		var lines []string
		for _, bd := range k.Bank.Bindings() {
			mode := "direct"
			if bd.TapAttached() {
				mode = "analysed"
			}
			if !k.Graph.Created() {
				mode = "idle"
			}
			lines = append(lines, fmt.Sprintf("%q %s", bd.Key, mode))
		}
		return strings.Join(lines, "\n"), nil

	case "events":
		events := k.Session.Events()
		if len(events) == 0 {
			return "no events", nil
		}
		lines := make([]string, len(events))
		for i, ev := range events {
			lines[i] = fmt.Sprintf("%q @ %.0fms", ev.Key, ev.OffsetMillis())
		}
		return strings.Join(lines, "\n"), nil

	case "export":
		if len(args) != 1 {
			return "", errors.Wrap(ErrBadArgument, "export needs a file name")
		}
		f, err := os.Create(args[0])
		if err != nil {
			return "", errors.Wrap(err, "creating export file")
		}
		d, err := k.Export(f)
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "closing export file")
		}
		if err != nil {
			os.Remove(args[0])
			return "", err
		}
		return fmt.Sprintf("wrote %s (%.2fs)", args[0], d.Seconds()), nil

	case "status":
		st := k.Engine.Stats()
		return fmt.Sprintf("%s, graph %s, volume %s, rate %s, fired %d, missed %d, blocked %d",
			k.describeState(), k.Graph.State(), formatLevel(k.Controls.Volume()),
			formatLevel(k.Controls.Rate()), st.Fired, st.Missed, st.Blocked), nil

	case "help":
		lines := make([]string, len(CommandHelp))
		for i, c := range CommandHelp {
			lines[i] = fmt.Sprintf("%-8s %s", c.Name, c.Help)
		}
		return strings.Join(lines, "\n"), nil

	default:
		return "", errors.Wrapf(ErrUnknownCommand, "%q", tokens[0])
	}
}

func (k *Kit) describeState() string {
	return fmt.Sprintf("%s (%d events)", k.Session.State(), len(k.Session.Events()))
}

func parseLevel(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Wrapf(ErrBadArgument, "%q is not a finite number", s)
	}
	return v, nil
}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
