package notify

import "time"

// ResponseTypeInChannel makes a delayed reply visible to the whole channel
// instead of only to the user who issued the command.
const ResponseTypeInChannel = "in_channel"

// Config holds notification delivery settings.
type Config struct {
	// Timeout bounds a single delivery attempt (default: 5s)
	Timeout time.Duration `yaml:"timeout" json:"timeout" koanf:"timeout" validate:"min=0"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
	}
}

// Context identifies the conversation a pipeline run reports back to.
// It is the parsed slash command forwarded by the chat front end and is
// carried on the pipeline event as "slackEvent".
type Context struct {
	Type            string       `json:"type,omitempty"`
	Text            string       `json:"text,omitempty"`
	Sender          string       `json:"sender,omitempty"`
	OriginalRequest SlashCommand `json:"originalRequest"`
}

// SlashCommand is the subset of the Slack slash command payload used for replies.
type SlashCommand struct {
	ResponseURL string `json:"response_url"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	Command     string `json:"command,omitempty"`
	Text        string `json:"text,omitempty"`
}

// NewContext builds a Context that replies to the given response URL.
func NewContext(responseURL string) *Context {
	return &Context{
		Type:            "slack-slash-command",
		OriginalRequest: SlashCommand{ResponseURL: responseURL},
	}
}

// ResponseURL returns the delayed reply endpoint, or "" for a nil context.
func (c *Context) ResponseURL() string {
	if c == nil {
		return ""
	}
	return c.OriginalRequest.ResponseURL
}

// Message is a single text outcome delivered to a channel.
type Message struct {
	Text         string
	ResponseType string
}

// NewMessage creates a Message that is visible in the channel immediately.
func NewMessage(text string) Message {
	return Message{
		Text:         text,
		ResponseType: ResponseTypeInChannel,
	}
}
