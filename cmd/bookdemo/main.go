// bookdemo runs the standalone book-creation RPC demo, either as the
// server or as a one-shot client.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/anilk007/library-service/internal/demo"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		cmdServe(os.Args[2:])
	case "create":
		cmdCreate(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: bookdemo <serve|create> [flags]

Commands:
  serve                      run the demo RPC server
  create <title> <author>    create a book on a running server

Flags:
  -addr <host:port>          server address (default: :50051)
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", demo.DefaultAddr, "listen address")
	fs.Parse(args)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Book demo server listening on %s\n", ln.Addr())
	if err := demo.Serve(ln); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func cmdCreate(args []string) {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	addr := fs.String("addr", "localhost:50051", "server address")
	fs.Parse(args)

	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Usage: bookdemo create [-addr host:port] <title> <author>")
		os.Exit(1)
	}

	client, err := demo.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	resp, err := client.CreateBook(fs.Arg(0), fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if resp.Success {
		fmt.Printf("SUCCESS: %s\n", resp.Message)
	} else {
		fmt.Printf("FAILURE: %s\n", resp.Message)
		os.Exit(1)
	}
}
