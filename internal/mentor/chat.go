package mentor

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/lingoquest/internal/kvs"
	"github.com/verte-zerg/lingoquest/internal/model"
)

// Role is a conversation scenario.
type Role struct {
	Name   string
	Prompt string
	intro  string
}

// DefaultMode is the free conversation scenario.
const DefaultMode = "free"

// Roles lists the conversation scenarios by mode.
var Roles = map[string]Role{
	"free": {
		Name:   "Free Chat",
		Prompt: "You are a helpful, friendly English language mentor. Correct mistakes gently and encourage conversation.",
		intro:  "Hi! I'm your English Mentor.\n\nToday's mission words:\n%s\n\nWhat would you like to talk about?",
	},
	"interview": {
		Name:   "Job Interview",
		Prompt: "You are a professional HR manager conducting a job interview. Ask typical interview questions, one by one. Be professional but encouraging.",
		intro:  "Mock Interview\n\nHello! Thanks for coming in today. I've reviewed your CV.\nCould you please start by telling me a little about yourself?\n\n(Try to use: %s)",
	},
	"market": {
		Name:   "Bargaining",
		Prompt: "You are a seller at a traditional market. You are selling fruits and vegetables. You expect the customer to haggle prices. Be lively and persuasive.",
		intro:  "Traditional Market\n\n\"Fresh fruits! Fresh vegetables! Come buy, very cheap for you!\"\n\n(Negotiate using: %s)",
	},
	"doctor": {
		Name:   "Doctor Visit",
		Prompt: "You are a helpful doctor. The user is a patient describing symptoms. Ask clarifying questions and give medical advice (roleplay only).",
		intro:  "Doctor's Clinic\n\nGood morning. What seems to be the problem today?\n\n(Target vocabulary: %s)",
	},
	"cafe": {
		Name:   "Ordering Coffee",
		Prompt: "You are a barista at a busy coffee shop. Take the customer's order, ask about size/milk, and be friendly.",
		intro:  "Starbeans Coffee\n\nHi there! What can I get started for you today?\n\n(Challenge words: %s)",
	},
}

// Modes returns the known modes in sorted order.
func Modes() []string {
	out := make([]string, 0, len(Roles))
	for k := range Roles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Target is a word the learner should use in the conversation.
type Target struct {
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
}

var fallbackTargets = []Target{
	{Word: "ephemeral", Meaning: "lasting a very short time"},
	{Word: "serendipity", Meaning: "finding something good without looking for it"},
	{Word: "resilient", Meaning: "able to withstand or recover quickly"},
}

const targetCount = 3

// PickTargets chooses three mission words, preferring entries still being
// learned and falling back to built-in words for small vocabularies.
func PickTargets(entries []model.VocabEntry, rnd *rand.Rand) []Target {
	var pool []model.VocabEntry
	for _, e := range entries {
		if e.Status == model.StatusLearning {
			pool = append(pool, e)
		}
	}
	if len(pool) < targetCount {
		pool = entries
	}
	if len(pool) < targetCount {
		return append([]Target(nil), fallbackTargets...)
	}
	shuffled := append([]model.VocabEntry(nil), pool...)
	rnd.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	out := make([]Target, 0, targetCount)
	for _, e := range shuffled[:targetCount] {
		out = append(out, Target{Word: e.Word, Meaning: e.Meaning})
	}
	return out
}

// Conversation is the persisted state of one mode.
type Conversation struct {
	Mode      string                `json:"mode"`
	Messages  []Message             `json:"messages"`
	Targets   []Target              `json:"targetWords"`
	Completed []string              `json:"completedWords"`
	Feedback  map[int]GrammarReport `json:"grammarFeedback,omitempty"`
}

// Remaining returns the targets not used yet.
func (c Conversation) Remaining() []Target {
	done := make(map[string]bool, len(c.Completed))
	for _, w := range c.Completed {
		done[strings.ToLower(w)] = true
	}
	var out []Target
	for _, t := range c.Targets {
		if !done[strings.ToLower(t.Word)] {
			out = append(out, t)
		}
	}
	return out
}

func (c Conversation) systemPrompt() string {
	words := make([]string, len(c.Targets))
	for i, t := range c.Targets {
		words[i] = t.Word
	}
	return fmt.Sprintf("%s\nCurrent target vocabulary: %s.\nIf the user uses a target word correctly, praise them briefly.\nKeep responses concise (max 2-3 sentences) to keep conversation flowing.",
		Roles[c.Mode].Prompt, strings.Join(words, ", "))
}

func intro(mode string, targets []Target) string {
	role := Roles[mode]
	if mode == DefaultMode {
		lines := make([]string, len(targets))
		for i, t := range targets {
			lines[i] = fmt.Sprintf("- %s (%s)", t.Word, t.Meaning)
		}
		return fmt.Sprintf(role.intro, strings.Join(lines, "\n"))
	}
	words := make([]string, len(targets))
	for i, t := range targets {
		words[i] = t.Word
	}
	return fmt.Sprintf(role.intro, strings.Join(words, ", "))
}

// Turn is the outcome of one learner message.
type Turn struct {
	Reply   string
	Used    []string
	Grammar *GrammarReport
	// Err is set when the reply failed; Reply then holds UserMessage(Err).
	Err error
}

// Chat runs persisted mentor conversations.
type Chat struct {
	kv     *kvs.Store
	client *Client
	log    *zap.Logger
}

// NewChat returns a Chat storing history in the mentor namespace.
func NewChat(kv *kvs.Store, client *Client, log *zap.Logger) *Chat {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chat{kv: kv, client: client, log: log}
}

// Load returns the saved conversation for mode, starting a new one with
// fresh targets when nothing is saved.
func (c *Chat) Load(ctx context.Context, mode string, entries []model.VocabEntry, rnd *rand.Rand) (Conversation, error) {
	if _, ok := Roles[mode]; !ok {
		return Conversation{}, fmt.Errorf("unknown mentor mode %q", mode)
	}
	var conv Conversation
	if c.kv.GetJSON(ctx, kvs.Mentor, mode, &conv) && len(conv.Messages) > 0 {
		conv.Mode = mode
		return conv, nil
	}
	return c.Start(ctx, mode, entries, rnd)
}

// Start replaces the conversation for mode with a fresh one.
func (c *Chat) Start(ctx context.Context, mode string, entries []model.VocabEntry, rnd *rand.Rand) (Conversation, error) {
	if _, ok := Roles[mode]; !ok {
		return Conversation{}, fmt.Errorf("unknown mentor mode %q", mode)
	}
	targets := PickTargets(entries, rnd)
	conv := Conversation{
		Mode:     mode,
		Targets:  targets,
		Messages: []Message{{Role: RoleAssistant, Content: intro(mode, targets)}},
	}
	c.kv.SetJSON(ctx, kvs.Mentor, mode, conv)
	return conv, nil
}

// ClearHistory deletes the saved conversation for mode.
func (c *Chat) ClearHistory(ctx context.Context, mode string) bool {
	return c.kv.Delete(ctx, kvs.Mentor, mode)
}

// Send records the learner message, checks its grammar and asks for a
// reply concurrently, then persists the conversation.
func (c *Chat) Send(ctx context.Context, conv *Conversation, text string) Turn {
	text = strings.TrimSpace(text)
	var turn Turn
	if text == "" {
		return turn
	}
	lower := strings.ToLower(text)
	for _, t := range conv.Remaining() {
		if strings.Contains(lower, strings.ToLower(t.Word)) {
			turn.Used = append(turn.Used, t.Word)
		}
	}
	conv.Completed = append(conv.Completed, turn.Used...)

	history := append([]Message(nil), conv.Messages...)
	userIdx := len(conv.Messages)
	conv.Messages = append(conv.Messages, Message{Role: RoleUser, Content: text})

	if !c.client.Configured() {
		turn.Err = ErrNotConfigured
		turn.Reply = UserMessage(turn.Err)
	} else {
		var (
			report   GrammarReport
			reportOK bool
			reply    string
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			report, reportOK = c.client.AnalyzeGrammar(gctx, text)
			return nil
		})
		g.Go(func() error {
			var err error
			reply, err = c.client.Reply(gctx, text, conv.systemPrompt(), history)
			return err
		})
		if err := g.Wait(); err != nil {
			turn.Err = err
			turn.Reply = UserMessage(err)
			c.log.Warn("mentor reply failed", zap.String("mode", conv.Mode), zap.Error(err))
		} else {
			turn.Reply = reply
		}
		if reportOK && report.HasErrors {
			turn.Grammar = &report
			if conv.Feedback == nil {
				conv.Feedback = map[int]GrammarReport{}
			}
			conv.Feedback[userIdx] = report
		}
	}

	conv.Messages = append(conv.Messages, Message{Role: RoleAssistant, Content: turn.Reply})
	c.kv.SetJSON(ctx, kvs.Mentor, conv.Mode, conv)
	return turn
}
