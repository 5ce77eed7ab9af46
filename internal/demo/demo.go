// Package demo is a small standalone book-creation RPC service, kept as
// a connectivity and smoke-test target. It stores books in memory and is
// entirely separate from the SQLite-backed API.
package demo

import (
	"fmt"
	"net"
	"net/rpc"
	"sync"
	"time"
)

// DefaultAddr is the demo service's default listen address.
const DefaultAddr = ":50051"

// CreateBookRequest is the argument to BookService.CreateBook.
type CreateBookRequest struct {
	Title  string
	Author string
}

// CreateBookResponse reports whether the book was stored.
type CreateBookResponse struct {
	Success bool
	Message string
}

type storedBook struct {
	Title     string
	Author    string
	Timestamp time.Time
}

// BookService is the RPC receiver. Books live in memory for the lifetime
// of the process.
type BookService struct {
	mu    sync.Mutex
	books []storedBook
}

// CreateBook validates and stores a book.
func (s *BookService) CreateBook(req CreateBookRequest, resp *CreateBookResponse) error {
	if req.Title == "" || req.Author == "" {
		resp.Success = false
		resp.Message = "Missing required book information."
		return nil
	}

	s.mu.Lock()
	s.books = append(s.books, storedBook{
		Title:     req.Title,
		Author:    req.Author,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	resp.Success = true
	resp.Message = fmt.Sprintf("Book %q created successfully.", req.Title)
	return nil
}

// Count returns how many books have been stored.
func (s *BookService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books)
}

// Serve registers the service and accepts connections on the listener
// until it is closed.
func Serve(ln net.Listener) error {
	server := rpc.NewServer()
	if err := server.RegisterName("BookService", new(BookService)); err != nil {
		return fmt.Errorf("registering rpc service: %w", err)
	}
	server.Accept(ln)
	return nil
}

// Client is a thin wrapper around an RPC connection to the demo service.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to a demo server.
func Dial(addr string) (*Client, error) {
	c, err := rpc.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing demo service: %w", err)
	}
	return &Client{rpc: c}, nil
}

// CreateBook calls the remote CreateBook method.
func (c *Client) CreateBook(title, author string) (*CreateBookResponse, error) {
	var resp CreateBookResponse
	if err := c.rpc.Call("BookService.CreateBook", CreateBookRequest{Title: title, Author: author}, &resp); err != nil {
		return nil, fmt.Errorf("calling CreateBook: %w", err)
	}
	return &resp, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.rpc.Close()
}
