// Command testserver runs a mock conversational media service for exercising
// the voiceload harness locally.
//
// Usage:
//
//	testserver [flags]
//
// Flags:
//
//	-port         Port to listen on (default: 8010)
//	-host         Host to bind to (default: localhost)
//	-text-delay   Delay before the first llm_text event (default: 200ms)
//	-audio-delay  Delay before the first audio frame (default: 400ms)
//	-frames       Audio frames emitted per request (default: 3)
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"voiceload/testserver"
)

func main() {
	port := flag.Int("port", 8010, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	textDelay := flag.Duration("text-delay", 200*time.Millisecond, "delay before the first text event")
	audioDelay := flag.Duration("audio-delay", 400*time.Millisecond, "delay before the first audio frame")
	frames := flag.Int("frames", 3, "audio frames emitted per request")
	flag.Parse()

	server := testserver.New(testserver.Options{
		TextDelay:   *textDelay,
		AudioDelay:  *audioDelay,
		AudioFrames: *frames,
	})
	addr := fmt.Sprintf("%s:%d", *host, *port)

	fmt.Println("voiceload Test Server")
	fmt.Println("======================")
	fmt.Printf("Listening on http://%s\n\n", addr)
	fmt.Println("Endpoints:")
	fmt.Println("  POST /offer   - Session handshake, returns {sessionid}")
	fmt.Println("  POST /human   - Trigger an interaction for a session")
	fmt.Println("  GET  /ws      - Control channel websocket (?sessionid=)")
	fmt.Println("  GET  /media   - Media channel websocket (?sessionid=)")
	fmt.Println()

	log.Fatal(http.ListenAndServe(addr, server.Handler()))
}
