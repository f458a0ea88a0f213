// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package chat

import "fmt"

// Kind distinguishes room notices from chat lines.
type Kind int

const (
	KindJoined Kind = iota
	KindLeft
	KindChat
)

// Message is one line delivered to peers.
type Message struct {
	Kind    Kind
	Sender  string
	Content string
}

// Joined announces a new peer.
func Joined(username string) Message {
	return Message{Kind: KindJoined, Sender: username}
}

// Left announces a departed peer.
func Left(username string) Message {
	return Message{Kind: KindLeft, Sender: username}
}

// Chat carries one line typed by sender.
func Chat(sender, content string) Message {
	return Message{Kind: KindChat, Sender: sender, Content: content}
}

// String renders the message as sent on the wire, without the newline.
func (m Message) String() string {
	switch m.Kind {
	case KindJoined:
		return fmt.Sprintf("[%s has joined the chat]", m.Sender)
	case KindLeft:
		return fmt.Sprintf("[%s has left the chat :(]", m.Sender)
	default:
		return fmt.Sprintf("%s: %s", m.Sender, m.Content)
	}
}
