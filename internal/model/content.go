package model

// TopicID identifies a quiz topic
type TopicID int

// Topic describes a question category
type Topic struct {
	ID          TopicID `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
}

// Question is a single multiple-choice question
type Question struct {
	ID      int      `json:"id" yaml:"id"`
	TopicID TopicID  `json:"topic_id" yaml:"-"`
	Text    string   `json:"text" yaml:"text"`
	Options []string `json:"options" yaml:"options"`
	Answer  string   `json:"answer" yaml:"answer"`
}

// Content is the payload handed to both players when a session starts.
// The matchmaker treats it as opaque.
type Content struct {
	Topic     Topic
	Questions []Question
}

// IsEmpty returns true if there is nothing to play
func (c *Content) IsEmpty() bool {
	return c == nil || len(c.Questions) == 0
}
