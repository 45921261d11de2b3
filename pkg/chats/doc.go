// Package chats provides the provider-agnostic conversation model shared by
// the prompt, history and provider packages.
//
// It is organized into sub-packages:
//   - [github.com/ultrapress/ultrapress/pkg/chats/role]: conversation roles (system, user, assistant)
//   - [github.com/ultrapress/ultrapress/pkg/chats/message]: immutable role/content messages and history sanitizing
//   - [github.com/ultrapress/ultrapress/pkg/chats/chat]: conversation state checks (awaiting a reply)
//
// No provider or API code is included; chats is a foundation layer
// that adapters can build on.
package chats
