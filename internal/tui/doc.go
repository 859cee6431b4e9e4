// Package tui provides the interactive chat front-end for crewcal.
//
// A ChatApp shows a scrolling transcript above a single-line input. Each
// submitted message is handed to a Responder off the UI goroutine; the reply
// is appended to the transcript when it arrives. Supervisor sessions can also
// stream workflow events, which are rendered as dimmed activity lines between
// the messages.
//
// Usage:
//
//	program, app := tui.NewChatProgram(ctx, "crewcal", "Assistant", assistant.Chat)
//	go app.ListenForEvents(program, emitter.Events())
//	_, err := program.Run()
//
// Quit with Ctrl+C or Esc.
package tui
