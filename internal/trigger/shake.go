package trigger

import (
	"math"
	"sync"
	"time"
)

// 摇晃检测默认参数
const (
	DefaultShakeThreshold = 15.0
	DefaultShakeWindow    = 1000 * time.Millisecond
	shakeCountRequired    = 3
)

// ShakeDetector 运动增量检测器
//
// 连续三轴加速度样本之间的绝对增量之和超过阈值记一次摇晃，
// 滚动窗口内累计三次触发回调并清零。纯模式识别，不关心开关状态。
type ShakeDetector struct {
	mu        sync.Mutex
	threshold float64
	window    time.Duration
	onShake   func()

	hasBase       bool
	lastX         float64
	lastY         float64
	lastZ         float64
	count         int
	lastQualified time.Time
}

// NewShakeDetector 创建检测器，threshold/window <= 0 时取默认值
func NewShakeDetector(threshold float64, window time.Duration, onShake func()) *ShakeDetector {
	if threshold <= 0 {
		threshold = DefaultShakeThreshold
	}
	if window <= 0 {
		window = DefaultShakeWindow
	}
	return &ShakeDetector{threshold: threshold, window: window, onShake: onShake}
}

// Sample 输入一个三轴加速度样本；首个样本只建立基线，不参与计数
func (d *ShakeDetector) Sample(x, y, z float64, at time.Time) {
	d.mu.Lock()

	// 窗口超时未凑满三次，计数清零
	if d.count > 0 && at.Sub(d.lastQualified) > d.window {
		d.count = 0
	}

	fire := false
	if d.hasBase {
		delta := math.Abs(x-d.lastX) + math.Abs(y-d.lastY) + math.Abs(z-d.lastZ)
		if delta > d.threshold {
			d.count++
			d.lastQualified = at
			if d.count >= shakeCountRequired {
				d.count = 0
				fire = true
			}
		}
	}

	d.hasBase = true
	d.lastX, d.lastY, d.lastZ = x, y, z
	d.mu.Unlock()

	if fire && d.onShake != nil {
		d.onShake()
	}
}

// Reset 清空基线与计数
func (d *ShakeDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasBase = false
	d.count = 0
}
