// Command chatcli is a terminal client for the chat server.
//
//	chatcli [-server URL] signup
//	chatcli [-server URL] login
//	chatcli [-server URL] [-token TOKEN] chat
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/thereayou/securechat/internal/client"
)

func main() {
	server := flag.String("server", envOr("CHAT_SERVER", "http://localhost:8000"), "server base URL")
	token := flag.String("token", os.Getenv("CHAT_TOKEN"), "access token for chat (prompts for login when empty)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: chatcli [flags] signup|login|chat\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	c, err := client.New(*server)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := bufio.NewReader(os.Stdin)

	switch flag.Arg(0) {
	case "signup":
		err = signup(ctx, c, stdin)
	case "login":
		var tok string
		tok, err = login(ctx, c, stdin)
		if err == nil {
			fmt.Println(tok)
		}
	case "chat":
		err = chat(ctx, c, stdin, *token)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func credentials(stdin *bufio.Reader) (string, string, error) {
	username, err := client.Prompt(stdin, os.Stdout, "Username")
	if err != nil {
		return "", "", err
	}
	password, err := client.PromptPassword(os.Stdout)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func signup(ctx context.Context, c *client.Client, stdin *bufio.Reader) error {
	username, password, err := credentials(stdin)
	if err != nil {
		return err
	}
	if err := c.Signup(ctx, username, password); err != nil {
		return err
	}
	fmt.Println("Registered. Run 'chatcli login' or 'chatcli chat'.")
	return nil
}

func login(ctx context.Context, c *client.Client, stdin *bufio.Reader) (string, error) {
	username, password, err := credentials(stdin)
	if err != nil {
		return "", err
	}
	return c.Login(ctx, username, password)
}

func chat(ctx context.Context, c *client.Client, stdin *bufio.Reader, token string) error {
	if token == "" {
		var err error
		if token, err = login(ctx, c, stdin); err != nil {
			return err
		}
	}

	me, err := c.Me(ctx, token)
	if err != nil {
		return err
	}

	conn, err := c.Dial(ctx, token)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Connected as %s. Type messages, Ctrl-D to quit.\n", me)

	recvErr := make(chan error, 1)
	go func() {
		for {
			env, err := conn.Receive()
			if err != nil {
				recvErr <- err
				return
			}
			fmt.Println(client.FormatEnvelope(env.Sender, env.Text))
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := stdin.ReadString('\n')
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-recvErr:
			if client.IsNormalClose(err) {
				fmt.Println("Disconnected by server.")
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := conn.Send(line); err != nil {
				return err
			}
		}
	}
}
