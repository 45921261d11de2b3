// Package engine is the composition root of UltraPress. It turns
// configuration into a provider Client and an Engine that frontends (HTTP
// server, MCP server, CLI) call for chatbot turns and SEO metadata. Request
// activity is observable through an EventBus.
package engine
