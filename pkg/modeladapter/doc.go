// Package modeladapter defines the provider-neutral side of an AI request.
//
// It contains:
//   - [Provider] enum and the [Adapter] capability set every provider implements
//     (build a wire request, parse a wire response)
//   - embeddable [ModelAdapter] base struct with the shared HTTP round trip
//   - the [Error] taxonomy ([KindConfig], [KindNetwork], [KindAPI], [KindParse])
//   - [github.com/ultrapress/ultrapress/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// This package contains no provider-specific code; concrete adapters live in
// separate packages that import modeladapter.
package modeladapter
