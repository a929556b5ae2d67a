// Package ipc exposes the engine to GUI clients over a unix socket.
//
// The protocol is newline-delimited JSON in both directions. The server
// pushes envelopes ({"type":"timeline"|"snapshot", "payload":...}) and
// clients send events ({"op":"scroll"|"seek"|"line", ...}).
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"
)

// ClientEvent is a message sent by a GUI client.
type ClientEvent struct {
	// Op is one of "scroll", "seek" or "line".
	Op string `json:"op"`
	// Tag echoes the tag of the scroll command that caused this scroll,
	// empty for user-initiated scrolls.
	Tag string `json:"tag,omitempty"`
	// Offset is the viewport offset in pixels after a scroll.
	Offset float64 `json:"offset,omitempty"`
	// Time is the seek target in seconds for "seek".
	Time float64 `json:"time,omitempty"`
	// Line is the clicked line index for "line".
	Line int `json:"line,omitempty"`
}

type envelope struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Server struct {
	socketPath      string
	listener        net.Listener
	clientConns     map[net.Conn]struct{}
	clientConnsLock sync.Mutex
	lastTimeline    []byte
	lastLock        sync.Mutex
	events          chan ClientEvent
	lockFile        *os.File
	lockFilePath    string
}

func NewServer(socketPath string) *Server {
	return &Server{
		socketPath:   socketPath,
		clientConns:  make(map[net.Conn]struct{}),
		events:       make(chan ClientEvent, 64),
		lockFilePath: socketPath + ".lock",
	}
}

// Events returns the inbound client event stream.
func (s *Server) Events() <-chan ClientEvent {
	return s.events
}

func (s *Server) checkAndCleanOldLock() error {
	if _, err := os.Stat(s.lockFilePath); os.IsNotExist(err) {
		return nil
	}

	content, err := os.ReadFile(s.lockFilePath)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read lock file, removing it")
		os.Remove(s.lockFilePath)
		return nil
	}

	pidStr := strings.TrimSpace(string(content))
	if pidStr == "" {
		log.Warn().Msg("Lock file is empty, removing it")
		os.Remove(s.lockFilePath)
		return nil
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		log.Warn().Err(err).Str("pid_str", pidStr).Msg("Invalid PID in lock file, removing it")
		os.Remove(s.lockFilePath)
		return nil
	}

	if !s.isProcessRunning(pid) {
		log.Info().Int("old_pid", pid).Msg("Process in lock file is not running, removing lock file")
		os.Remove(s.lockFilePath)
		return nil
	}

	log.Info().Int("existing_pid", pid).Msg("Another process is still running")
	return nil
}

func (s *Server) isProcessRunning(pid int) bool {
	// kill(pid, 0) checks existence without sending a signal
	err := syscall.Kill(pid, 0)
	return err == nil
}

func (s *Server) acquireLock() error {
	if err := s.checkAndCleanOldLock(); err != nil {
		log.Warn().Err(err).Msg("Failed to clean old lock file")
	}

	file, err := os.OpenFile(s.lockFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create lock file: %w", err)
	}

	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		file.Close()
		if err == syscall.EWOULDBLOCK {
			return fmt.Errorf("another lyricsync instance is already running")
		}
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	_, err = file.WriteString(fmt.Sprintf("%d\n", os.Getpid()))
	if err != nil {
		syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		file.Close()
		return fmt.Errorf("failed to write PID to lock file: %w", err)
	}

	s.lockFile = file
	log.Info().Str("lock_file", s.lockFilePath).Int("pid", os.Getpid()).Msg("Acquired process lock")
	return nil
}

func (s *Server) releaseLock() {
	if s.lockFile != nil {
		syscall.Flock(int(s.lockFile.Fd()), syscall.LOCK_UN)
		s.lockFile.Close()
		os.Remove(s.lockFilePath)
		log.Info().Str("lock_file", s.lockFilePath).Msg("Released process lock")
		s.lockFile = nil
	}
}

func (s *Server) Start() error {
	if err := s.acquireLock(); err != nil {
		return err
	}

	if err := os.RemoveAll(s.socketPath); err != nil {
		s.releaseLock()
		return err
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		s.releaseLock()
		return err
	}
	s.listener = listener

	log.Info().Str("socket_path", s.socketPath).Msg("IPC server listening")

	go s.acceptConnections()

	return nil
}

func (s *Server) acceptConnections() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			log.Error().Err(err).Msg("Failed to accept IPC connection")
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	s.clientConnsLock.Lock()
	s.clientConns[conn] = struct{}{}
	s.clientConnsLock.Unlock()

	log.Info().Msg("GUI client connected")

	// Replay the current timeline so a late-joining client can render
	// immediately; snapshots stream right behind it.
	s.lastLock.Lock()
	replay := s.lastTimeline
	s.lastLock.Unlock()
	if len(replay) > 0 {
		if _, err := conn.Write(replay); err != nil {
			log.Error().Err(err).Msg("Failed to send initial timeline")
		}
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event ClientEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			log.Warn().Err(err).Str("line", line).Msg("Dropping malformed client event")
			continue
		}
		select {
		case s.events <- event:
		default:
			log.Warn().Str("op", event.Op).Msg("Event queue full, dropping client event")
		}
	}

	s.clientConnsLock.Lock()
	delete(s.clientConns, conn)
	s.clientConnsLock.Unlock()
	conn.Close()
	log.Info().Msg("GUI client disconnected")
}

// PublishTimeline broadcasts a new timeline. It is also retained for replay
// to clients that connect later.
func (s *Server) PublishTimeline(payload interface{}) {
	data, err := encode("timeline", payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode timeline")
		return
	}

	s.lastLock.Lock()
	s.lastTimeline = data
	s.lastLock.Unlock()

	s.broadcast(data)
}

// PublishSnapshot broadcasts a per-tick render state.
func (s *Server) PublishSnapshot(payload interface{}) {
	data, err := encode("snapshot", payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode snapshot")
		return
	}
	s.broadcast(data)
}

func encode(msgType string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(envelope{Type: msgType, Payload: payload})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (s *Server) broadcast(data []byte) {
	s.clientConnsLock.Lock()
	defer s.clientConnsLock.Unlock()

	for conn := range s.clientConns {
		_, err := conn.Write(data)
		if err != nil {
			log.Error().Err(err).Msg("Failed to write to client, removing")
			conn.Close()
			delete(s.clientConns, conn)
		}
	}
}

func (s *Server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.releaseLock()
}
