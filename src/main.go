package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/stevebarakat/Minimoog-sub001/src/audio"
	"golang.org/x/sync/errgroup"
)

var (
	sockFileName = flag.String("sock", "/tmp/minimoog-sub001.sock", "unix socket for the control connection")
	midiPort     = flag.Int("midi", -1, "MIDI IN port index (-1 picks the first)")
	renderPath   = flag.String("render", "", "render a note to this WAV file and exit")
	renderNote   = flag.String("note", "A4", "note to play in render mode")
	renderSecs   = flag.Float64("seconds", 2.0, "length of the rendered file")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())

	if *renderPath != "" {
		if err := renderOffline(*renderPath, *renderNote, *renderSecs); err != nil {
			log.Fatalf("error: %v\n", err)
		}
		return
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	engine := audio.NewEngine()
	defer engine.Close()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, os.Kill, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		log.Printf("Caught signal %s: shutting down...\n", sig)
		cancel()
	}()
	err := withIPCConnection(ctx, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return engine.Start(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, engine.CommandCh)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, engine)
		})
		g.Go(func() error {
			return pumpMidi(ctx, engine)
		})
		return g.Wait()
	})
	if err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Println("main() ended.")
}

func renderOffline(path string, note string, seconds float64) error {
	engine := audio.NewEngine()
	defer engine.Close()
	engine.CommandCh <- []string{"note_on", note}
	// the command goroutine applies it before the first pull
	time.Sleep(10 * time.Millisecond)
	return engine.RenderWAV(path, seconds)
}

func withIPCConnection(ctx context.Context, f func(net.Conn) error) error {
	os.Remove(*sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", *sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("error while closing listener: %v", err)
		}
		os.Remove(*sockFileName)
	}()
	log.Printf("start listening...\n")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("error while closing connection: %v", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn net.Conn, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		commandCh <- command
		log.Printf("received: %s\n", string(line))
		line = []byte{}
	}
	log.Println("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(line, " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	return lineStr, nil
}

func sendReports(ctx context.Context, conn net.Conn, engine *audio.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			if engine.Changes.Has("data") {
				engine.Changes.Delete("data")
				if _, err := conn.Write(append(append([]byte("state "), engine.ToJSON()...), '\n')); err != nil {
					return err
				}
			}
			result := engine.GetFFT()
			if len(result) == 0 {
				continue
			}
			s := "fft"
			for _, value := range result {
				s += " " + strconv.FormatFloat(value, 'f', 6, 64)
			}
			select {
			case <-ctx.Done():
				log.Println("sendReports() interrupted")
				break loop
			default:
				if _, err := conn.Write([]byte(s + "\n")); err != nil {
					return err
				}
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}

func pumpMidi(ctx context.Context, engine *audio.Engine) error {
	for data := range audio.ListenToMidiIn(ctx, *midiPort) {
		engine.AddMidiEvent(data)
	}
	log.Println("pumpMidi() ended.")
	return nil
}
