package device

import (
	"bytes"
	"sync"
)

// AudioRecorder 录音会话
//
// 同一时间至多一个会话；重复 Start 与空闲时 Stop 都是无操作
type AudioRecorder interface {
	Start() error
	Append(chunk []byte) error
	Stop() []byte
	Recording() bool
}

// BufferRecorder 内存缓冲录音：客户端分块上传，Stop 返回累计字节
type BufferRecorder struct {
	mu        sync.Mutex
	recording bool
	buf       bytes.Buffer
}

// NewBufferRecorder 创建录音缓冲
func NewBufferRecorder() *BufferRecorder {
	return &BufferRecorder{}
}

// Start 开始录音；已在录音中时不做任何事
func (r *BufferRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}
	r.recording = true
	r.buf.Reset()
	return nil
}

// Append 追加一段音频数据，未在录音时静默丢弃
func (r *BufferRecorder) Append(chunk []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	_, err := r.buf.Write(chunk)
	return err
}

// Stop 结束录音并返回累计数据；从未开始时返回 nil
func (r *BufferRecorder) Stop() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil
	}
	r.recording = false
	if r.buf.Len() == 0 {
		return []byte{}
	}
	out := make([]byte, r.buf.Len())
	copy(out, r.buf.Bytes())
	r.buf.Reset()
	return out
}

// Recording 当前是否在录音
func (r *BufferRecorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
