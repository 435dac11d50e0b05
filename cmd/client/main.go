package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/matst80/wsbridge/internal/proto"
)

// escapeByte (Ctrl-]) ends the session from the keyboard, as in telnet.
const escapeByte = 0x1d

func main() {
	cfg, err := parseConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.List {
		if err := listTargets(os.Stdout, cfg); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	u, err := cfg.sessionURL()
	if err != nil {
		return err
	}
	dialer := websocket.Dialer{HandshakeTimeout: cfg.DialTimeout}
	ws, resp, err := dialer.Dial(u, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("connect %s: %s", u, resp.Status)
		}
		return fmt.Errorf("connect %s: %w", u, err)
	}
	defer ws.Close()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer term.Restore(fd, old)
		fmt.Fprintf(os.Stderr, "connected to %s, escape is ^]\r\n", cfg.Target)
	}

	// Stdin reads cannot be interrupted, so only the socket side is waited for.
	go func() {
		if err := pumpInput(os.Stdin, ws); err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(os.Stderr, "\r\ninput: %v\r\n", err)
		}
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	}()
	err = pumpOutput(ws, os.Stdout)
	fmt.Fprint(os.Stderr, "\r\nconnection closed\r\n")
	return err
}

type binaryWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// pumpInput sends everything read from r as binary frames until EOF or the
// escape byte.
func pumpInput(r io.Reader, w binaryWriter) error {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			p := buf[:n]
			i := bytes.IndexByte(p, escapeByte)
			if i >= 0 {
				p = p[:i]
			}
			if len(p) > 0 {
				if werr := w.WriteMessage(websocket.BinaryMessage, p); werr != nil {
					return werr
				}
			}
			if i >= 0 {
				return nil
			}
		}
		if err != nil {
			return err
		}
	}
}

type frameReader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

// pumpOutput copies binary frames to w until the bridge closes the session.
func pumpOutput(r frameReader, w io.Writer) error {
	for {
		mt, p, err := r.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
}

func listTargets(w io.Writer, cfg *Config) error {
	client := &http.Client{Timeout: cfg.DialTimeout}
	resp, err := client.Get(strings.TrimSuffix(cfg.StatusURL, "/") + "/api/targets")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("list targets: %s", resp.Status)
	}
	var targets []proto.Target
	if err := json.NewDecoder(resp.Body).Decode(&targets); err != nil {
		return fmt.Errorf("list targets: %w", err)
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Mode", "Address"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)
	for _, t := range targets {
		table.Append([]string{t.Name, t.Mode, t.Address})
	}
	table.Render()
	return nil
}
