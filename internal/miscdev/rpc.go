// Copyright © 2025-2026 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package miscdev

import (
	"errors"
	"net/rpc"
	"strings"
	"syscall"

	"github.com/platinasystems/atsock"
	"github.com/platinasystems/nxgpio"
)

const (
	SockName    = "nxgpio"
	ServiceName = "Misc"
)

type Args struct {
	Name    string
	Request uint
	Arg     uint
	Data    []byte
}

type Reply struct {
	N    int
	Data []byte
}

// Service exports a Registry through net/rpc.
type Service struct {
	reg *Registry
}

func (s *Service) Read(args Args, reply *Reply) error {
	b, err := s.reg.Read(args.Name)
	if err != nil {
		return err
	}
	reply.N, reply.Data = 1, []byte{b}
	return nil
}

func (s *Service) Write(args Args, reply *Reply) (err error) {
	reply.N, err = s.reg.Write(args.Name, args.Data)
	return
}

func (s *Service) Ioctl(args Args, reply *Reply) error {
	return s.reg.Ioctl(args.Name, args.Request, args.Arg)
}

func (s *Service) Info(args Args, reply *Info) (err error) {
	*reply, err = s.reg.Info(args.Name)
	return
}

func (s *Service) List(args Args, reply *[]string) error {
	*reply = s.reg.Names()
	return nil
}

// Register the registry service with the given rpc server.
func Register(srv *rpc.Server, reg *Registry) error {
	return srv.RegisterName(ServiceName, &Service{reg})
}

// Serve the registry on the abstract socket "@nxgpio".
func Serve(reg *Registry) (*atsock.RpcServer, error) {
	if err := Register(rpc.DefaultServer, reg); err != nil {
		return nil, err
	}
	return atsock.NewRpcServer(SockName)
}

// Client is a Conn to a served Registry.
type Client struct {
	c *rpc.Client
}

var _ Conn = (*Client)(nil)

func Dial() (*Client, error) {
	c, err := atsock.NewRpcClient(SockName)
	if err != nil {
		return nil, err
	}
	return NewClient(c), nil
}

func NewClient(c *rpc.Client) *Client { return &Client{c} }

func (c *Client) Close() error { return c.c.Close() }

func (c *Client) call(method string, args Args, reply interface{}) error {
	return remote(c.c.Call(ServiceName+"."+method, args, reply))
}

func (c *Client) Read(name string) (byte, error) {
	var reply Reply
	if err := c.call("Read", Args{Name: name}, &reply); err != nil {
		return 0, err
	}
	if len(reply.Data) == 0 {
		return 0, nil
	}
	return reply.Data[0], nil
}

func (c *Client) Write(name string, p []byte) (int, error) {
	var reply Reply
	err := c.call("Write", Args{Name: name, Data: p}, &reply)
	return reply.N, err
}

func (c *Client) Ioctl(name string, request, arg uint) error {
	return c.call("Ioctl", Args{Name: name, Request: request, Arg: arg},
		&Reply{})
}

func (c *Client) Info(name string) (Info, error) {
	var info Info
	err := c.call("Info", Args{Name: name}, &info)
	return info, err
}

func (c *Client) List() ([]string, error) {
	var names []string
	err := c.call("List", Args{}, &names)
	return names, err
}

// Errors recognized in the text of a server error.
var remoteErrors = []error{
	syscall.EINVAL,
	syscall.ENODEV,
	syscall.EEXIST,
	syscall.EBADF,
	nxgpio.ErrInvalidPin,
	nxgpio.ErrReadOnly,
	nxgpio.ErrWriteOnly,
	nxgpio.ErrUnknownBank,
	nxgpio.ErrConfig,
}

type remoteError struct {
	msg string
	err error
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.err }

func remote(err error) error {
	var se rpc.ServerError
	if !errors.As(err, &se) {
		return err
	}
	for _, known := range remoteErrors {
		if strings.Contains(string(se), known.Error()) {
			return &remoteError{string(se), known}
		}
	}
	return err
}
