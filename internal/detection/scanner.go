package detection

import (
	"math/rand"
	"strings"
	"sync"
)

// Result 单条消息的扫描结果
type Result struct {
	Category          string `json:"category"`
	RiskScore         int    `json:"riskScore"`
	IsHarmful         bool   `json:"isHarmful"`
	RecommendedAction string `json:"recommendedAction"`
}

const (
	CategorySafe = "Safe"

	actionHarmful = "Block sender, save evidence, and consider reporting"
	actionSafe    = "Message appears safe to view"
)

// categoryList 检测类别，顺序即优先级，先命中者生效
type categoryEntry struct {
	name     string
	keywords []string
}

var categories = []categoryEntry{
	{"Harassment", []string{"stupid", "idiot", "hate you", "loser", "ugly"}},
	{"Threats", []string{"kill", "hurt", "destroy", "attack", "harm"}},
	{"Grooming", []string{"secret", "don't tell", "special friend", "meet alone"}},
	{"Sexual", []string{"nude", "sexy", "body", "private parts"}},
	{"Doxxing", []string{"address", "phone number", "live at", "school at"}},
	{"Hate", []string{"racist", "discriminat", "inferior", "deserve to die"}},
}

// Scanner 基于关键词的消息扫描器
//
// 类别判定是确定性的；风险分数在区间内随机，随机源可注入以便测试固定
type Scanner struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewScanner 创建扫描器，rnd 为空时使用时间种子
func NewScanner(rnd *rand.Rand) *Scanner {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Scanner{rnd: rnd}
}

// Scan 扫描消息文本
//
// 有害：分数 [70,100]；安全：分数 [5,25)
func (s *Scanner) Scan(text string) Result {
	lower := strings.ToLower(text)

	for _, entry := range categories {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				return Result{
					Category:          entry.name,
					RiskScore:         s.intn(31) + 70,
					IsHarmful:         true,
					RecommendedAction: actionHarmful,
				}
			}
		}
	}

	return Result{
		Category:          CategorySafe,
		RiskScore:         s.intn(20) + 5,
		IsHarmful:         false,
		RecommendedAction: actionSafe,
	}
}

func (s *Scanner) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}

// AlertRiskLevel 有害消息写入警报时的风险等级：分数 >80 记 high，否则 medium
func AlertRiskLevel(score int) string {
	if score > 80 {
		return "high"
	}
	return "medium"
}
