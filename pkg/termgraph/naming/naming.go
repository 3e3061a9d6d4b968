// Package naming asks a chat model for short display names of keyword
// groups. Naming is best effort: every group always receives a name.
package naming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTopKeywords = 8
	DefaultTimeout     = 45 * time.Second
)

// Chatter is a single-turn chat capability.
type Chatter interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// Options configures a Namer.
type Options struct {
	Chat        Chatter
	TopKeywords int
	Timeout     time.Duration
	Logger      logrus.FieldLogger
}

// Namer names keyword groups in one batch request.
type Namer struct {
	chat    Chatter
	top     int
	timeout time.Duration
	logger  logrus.FieldLogger
}

// New creates a Namer. A nil Chat yields default names only.
func New(opts Options) *Namer {
	if opts.TopKeywords <= 0 {
		opts.TopKeywords = DefaultTopKeywords
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	return &Namer{chat: opts.Chat, top: opts.TopKeywords, timeout: opts.Timeout, logger: opts.Logger}
}

// DefaultName is the name used when a group is not named by the model.
func DefaultName(id int) string {
	return fmt.Sprintf("Group %d", id)
}

// Defaults returns the default name of every group.
func Defaults(groups map[int][]string) map[int]string {
	names := make(map[int]string, len(groups))
	for id := range groups {
		names[id] = DefaultName(id)
	}
	return names
}

// Model reports the chat model in use, if the capability exposes one.
func (n *Namer) Model() string {
	if m, ok := n.chat.(interface{ ModelName() string }); ok {
		return m.ModelName()
	}
	return ""
}

// Name returns a display name for every group id. Keywords of each group
// are expected in descending importance; only the first TopKeywords are
// sent. Failures of any kind leave the default names in place.
func (n *Namer) Name(ctx context.Context, groups map[int][]string) map[int]string {
	names := Defaults(groups)
	if len(groups) == 0 || n.chat == nil {
		return names
	}
	logger := n.logger.WithField("action", "name_groups")

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	reply, err := n.chat.Chat(ctx, systemPrompt, n.prompt(groups))
	if err != nil {
		logger.WithError(err).Warn("group naming failed, using default names")
		return names
	}

	parsed, err := parseNames(reply)
	if err != nil {
		logger.WithError(err).WithField("reply", truncate(reply, 200)).
			Warn("unparseable naming reply, using default names")
		return names
	}

	named := 0
	for id, name := range parsed {
		if _, ok := groups[id]; !ok {
			continue
		}
		names[id] = name
		named++
	}
	logger.WithField("groups", len(groups)).WithField("named", named).Info("named groups")
	return names
}

const systemPrompt = "You label clusters of keywords extracted from one document."

func (n *Namer) prompt(groups map[int][]string) string {
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	b.WriteString("Give each keyword group below a short category name of 2 to 4 words, ")
	b.WriteString("in the language of the keywords.\n")
	b.WriteString(`Reply with a JSON object only, keyed by group id, e.g. {"0": "机器学习", "1": "深度学习"}.`)
	b.WriteString("\n\n")
	for _, id := range ids {
		kws := groups[id]
		if len(kws) > n.top {
			kws = kws[:n.top]
		}
		fmt.Fprintf(&b, "ID %d: %s\n", id, strings.Join(kws, ", "))
	}
	b.WriteString("\nDo not wrap the JSON in a code block.")
	return b.String()
}

// parseNames decodes a {"id": "name"} reply. Markdown fences are removed
// and keys may be written as "0" or "ID 0".
func parseNames(reply string) (map[int]string, error) {
	body := stripFences(reply)
	if start, end := strings.Index(body, "{"), strings.LastIndex(body, "}"); start >= 0 && end > start {
		body = body[start : end+1]
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, errors.Wrap(err, "decode names")
	}

	out := make(map[int]string, len(raw))
	for key, value := range raw {
		name, ok := value.(string)
		if !ok || strings.TrimSpace(name) == "" {
			continue
		}
		key = strings.TrimSpace(key)
		if len(key) > 2 && strings.EqualFold(key[:2], "id") {
			key = strings.TrimSpace(key[2:])
		}
		id, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out[id] = strings.TrimSpace(name)
	}
	return out, nil
}

func stripFences(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
	} else {
		return strings.TrimSpace(s)
	}
	if j := strings.Index(s, "```"); j >= 0 {
		s = s[:j]
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
