package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShakeDetectorFiresAfterThreeDeltas(t *testing.T) {
	fired := 0
	d := NewShakeDetector(15, time.Second, func() { fired++ })

	base := time.Now()
	// 首个样本只建立基线
	d.Sample(0, 0, 0, base)
	// 三次大增量，均落在窗口内
	d.Sample(20, 0, 0, base.Add(100*time.Millisecond))
	d.Sample(0, 0, 0, base.Add(200*time.Millisecond))
	d.Sample(20, 0, 0, base.Add(300*time.Millisecond))

	assert.Equal(t, 1, fired, "three qualifying deltas should fire exactly once")
}

func TestShakeDetectorFirstSampleOnlySeeds(t *testing.T) {
	fired := 0
	d := NewShakeDetector(15, time.Second, func() { fired++ })

	// 即使数值很大，首个样本没有基线可比
	d.Sample(100, 100, 100, time.Now())
	assert.Equal(t, 0, fired)
}

func TestShakeDetectorWindowReset(t *testing.T) {
	fired := 0
	d := NewShakeDetector(15, time.Second, func() { fired++ })

	base := time.Now()
	d.Sample(0, 0, 0, base)
	d.Sample(20, 0, 0, base.Add(100*time.Millisecond))
	d.Sample(0, 0, 0, base.Add(200*time.Millisecond))

	// 窗口超时，前两次计数作废
	d.Sample(20, 0, 0, base.Add(2*time.Second))
	assert.Equal(t, 0, fired)

	// 重新凑满三次
	d.Sample(0, 0, 0, base.Add(2100*time.Millisecond))
	d.Sample(20, 0, 0, base.Add(2200*time.Millisecond))
	assert.Equal(t, 1, fired)
}

func TestShakeDetectorBelowThreshold(t *testing.T) {
	fired := 0
	d := NewShakeDetector(15, time.Second, func() { fired++ })

	base := time.Now()
	d.Sample(0, 0, 0, base)
	for i := 1; i <= 10; i++ {
		d.Sample(float64(i%2)*5, 0, 0, base.Add(time.Duration(i)*50*time.Millisecond))
	}
	assert.Equal(t, 0, fired)
}

func TestShakeDetectorCountsRestartAfterFire(t *testing.T) {
	fired := 0
	d := NewShakeDetector(15, time.Second, func() { fired++ })

	base := time.Now()
	d.Sample(0, 0, 0, base)
	for i := 1; i <= 6; i++ {
		// 交替 0/20，每个样本都是合格增量
		d.Sample(float64(i%2)*20, 0, 0, base.Add(time.Duration(i)*100*time.Millisecond))
	}
	assert.Equal(t, 2, fired, "six qualifying deltas fire twice")
}

func TestShakeDetectorDeltaSumsAcrossAxes(t *testing.T) {
	fired := 0
	d := NewShakeDetector(15, time.Second, func() { fired++ })

	base := time.Now()
	d.Sample(0, 0, 0, base)
	// 每轴增量 6，总和 18 超过阈值
	d.Sample(6, 6, 6, base.Add(100*time.Millisecond))
	d.Sample(0, 0, 0, base.Add(200*time.Millisecond))
	d.Sample(6, 6, 6, base.Add(300*time.Millisecond))

	assert.Equal(t, 1, fired)
}
