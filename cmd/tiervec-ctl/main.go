package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
)

var version = "dev"

func main() {
	addr := flag.String("addr", "http://localhost:8080", "tiervecd API address")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	c := &client{addr: strings.TrimRight(*addr, "/"), http: http.DefaultClient, out: os.Stdout}

	var err error
	switch args[0] {
	case "version":
		fmt.Printf("tiervec-ctl %s\n", version)
	case "status":
		err = c.status()
	case "list":
		err = c.list()
	case "get":
		if len(args) < 2 {
			usageExit("usage: tiervec-ctl get <name>")
		}
		err = c.get(args[1])
	case "push":
		if len(args) < 3 {
			usageExit("usage: tiervec-ctl push <name> <value>...")
		}
		err = c.push(args[1], args[2:])
	case "sort":
		if len(args) < 2 {
			usageExit("usage: tiervec-ctl sort <name>")
		}
		err = c.sort(args[1])
	case "set":
		if len(args) < 4 {
			usageExit("usage: tiervec-ctl set <name> <index> <value>")
		}
		err = c.set(args[1], args[2], args[3])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usageExit(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `tiervec-ctl - tiervecd management CLI

Usage:
  tiervec-ctl [flags] <command> [args]

Commands:
  status                     Show overall status
  list                       List collections with tier and length
  get <name>                 Show a collection's contents
  push <name> <value>...     Push one or more integers
  sort <name>                Sort a collection in place
  set <name> <index> <value> Replace the value at index
  version                    Show version

Flags:
  -addr string   API address (default "http://localhost:8080")`)
}

type client struct {
	addr string
	http *http.Client
	out  io.Writer
}

func (c *client) status() error {
	return c.doJSON(http.MethodGet, "/v1/status", nil)
}

func (c *client) list() error {
	resp, err := c.http.Get(c.addr + "/v1/collections")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}

	var sums []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&sums); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	w := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTIER\tLEN\tID")
	for _, s := range sums {
		fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", s["name"], s["tier"], s["len"], s["id"])
	}
	return w.Flush()
}

func (c *client) get(name string) error {
	return c.doJSON(http.MethodGet, collectionPath(name), nil)
}

func (c *client) push(name string, raw []string) error {
	vs := make([]int64, 0, len(raw))
	for _, s := range raw {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", s, err)
		}
		vs = append(vs, v)
	}
	body, err := json.Marshal(vs)
	if err != nil {
		return err
	}
	return c.doJSON(http.MethodPost, collectionPath(name, "push"), body)
}

func (c *client) sort(name string) error {
	return c.doJSON(http.MethodPost, collectionPath(name, "sort"), nil)
}

func (c *client) set(name, index, value string) error {
	if _, err := strconv.Atoi(index); err != nil {
		return fmt.Errorf("invalid index %q: %w", index, err)
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", value, err)
	}
	return c.doJSON(http.MethodPut, collectionPath(name, "items", index), []byte(strconv.FormatInt(v, 10)))
}

func (c *client) doJSON(method, path string, body []byte) error {
	req, err := http.NewRequest(method, c.addr+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return printJSON(c.out, resp.Body)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 300 {
		return nil
	}
	var e struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("%s", resp.Status)
}

func printJSON(w io.Writer, r io.Reader) error {
	var v interface{}
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// collectionPath builds an API path for name with each segment escaped.
func collectionPath(name string, parts ...string) string {
	p := "/v1/collections/" + url.PathEscape(name)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
