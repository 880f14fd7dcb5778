package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/user/anistats/internal/config"
	"github.com/user/anistats/internal/model"
	"github.com/user/anistats/internal/utils"
	"golang.org/x/sync/singleflight"
)

const (
	// Jikan 公共接口限速约每秒 3 次，留出余量
	jikanMinInterval = 400 * time.Millisecond
	jikanMaxRetries  = 3
)

// PersonRef 人员引用
type PersonRef struct {
	MALID int64  `json:"mal_id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// StaffCredit 一部番剧的一条制作人员记录
type StaffCredit struct {
	Person    PersonRef `json:"person"`
	Positions []string  `json:"positions"`
}

// VoiceActor 一个角色的一条配音记录
type VoiceActor struct {
	Person   PersonRef `json:"person"`
	Language string    `json:"language"`
}

// CharacterRole 一部番剧的一个角色
type CharacterRole struct {
	CharacterID int64        `json:"character_id"`
	Name        string       `json:"name"`
	VoiceActors []VoiceActor `json:"voice_actors"`
}

// JikanService Jikan 元数据接口客户端
// 带限速、重试、并发去重和 LRU 缓存，实现 StaffProvider
type JikanService struct {
	client  *utils.HTTPClient
	baseURL string

	sf         singleflight.Group
	staffCache *utils.APICache[[]StaffCredit]
	charCache  *utils.APICache[[]CharacterRole]

	mu          sync.Mutex
	lastRequest time.Time
}

// NewJikanService 创建 Jikan 客户端
func NewJikanService(client *utils.HTTPClient, cfg *config.Config) *JikanService {
	return &JikanService{
		client:     client,
		baseURL:    cfg.JikanBaseURL,
		staffCache: utils.NewAPICache[[]StaffCredit](2000, 24*time.Hour),
		charCache:  utils.NewAPICache[[]CharacterRole](2000, 24*time.Hour),
	}
}

// throttle 保证相邻请求的最小间隔
func (s *JikanService) throttle(ctx context.Context) error {
	s.mu.Lock()
	wait := jikanMinInterval - time.Since(s.lastRequest)
	s.lastRequest = time.Now().Add(wait)
	s.mu.Unlock()

	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// getJSON 带限速和重试的 GET 请求
func (s *JikanService) getJSON(ctx context.Context, url string, target interface{}) error {
	var lastErr error
	for attempt := 0; attempt < jikanMaxRetries; attempt++ {
		if attempt > 0 {
			// 退避后重试，多为 429 限速
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := s.throttle(ctx); err != nil {
			return err
		}

		resp, err := s.client.Get(ctx, url)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return fmt.Errorf("资源不存在: %s", url)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("请求失败，状态码: %d", resp.StatusCode)
			log.Printf("[Jikan] 请求 %s 失败 (第 %d 次): %v", url, attempt+1, lastErr)
			continue
		}

		err = utils.DecodeJSON(resp, target)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("重试 %d 次后放弃: %w", jikanMaxRetries, lastErr)
}

type jikanStaffResponse struct {
	Data []struct {
		Person    PersonRef `json:"person"`
		Positions []string  `json:"positions"`
	} `json:"data"`
}

// GetStaff 获取一部番剧的制作人员
func (s *JikanService) GetStaff(ctx context.Context, animeID int64) ([]StaffCredit, error) {
	key := "staff:" + strconv.FormatInt(animeID, 10)
	if cached, ok := s.staffCache.Get(key); ok {
		return cached, nil
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var resp jikanStaffResponse
		url := fmt.Sprintf("%s/anime/%d/staff", s.baseURL, animeID)
		if err := s.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		credits := make([]StaffCredit, 0, len(resp.Data))
		for _, d := range resp.Data {
			credits = append(credits, StaffCredit{Person: d.Person, Positions: d.Positions})
		}
		s.staffCache.Set(key, credits)
		return credits, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]StaffCredit), nil
}

type jikanCharactersResponse struct {
	Data []struct {
		Character struct {
			MALID int64  `json:"mal_id"`
			Name  string `json:"name"`
		} `json:"character"`
		VoiceActors []struct {
			Person   PersonRef `json:"person"`
			Language string    `json:"language"`
		} `json:"voice_actors"`
	} `json:"data"`
}

// GetCharacters 获取一部番剧的角色和配音
func (s *JikanService) GetCharacters(ctx context.Context, animeID int64) ([]CharacterRole, error) {
	key := "chars:" + strconv.FormatInt(animeID, 10)
	if cached, ok := s.charCache.Get(key); ok {
		return cached, nil
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		var resp jikanCharactersResponse
		url := fmt.Sprintf("%s/anime/%d/characters", s.baseURL, animeID)
		if err := s.getJSON(ctx, url, &resp); err != nil {
			return nil, err
		}
		roles := make([]CharacterRole, 0, len(resp.Data))
		for _, d := range resp.Data {
			role := CharacterRole{
				CharacterID: d.Character.MALID,
				Name:        d.Character.Name,
			}
			for _, va := range d.VoiceActors {
				role.VoiceActors = append(role.VoiceActors, VoiceActor{
					Person:   va.Person,
					Language: va.Language,
				})
			}
			roles = append(roles, role)
		}
		s.charCache.Set(key, roles)
		return roles, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]CharacterRole), nil
}

type jikanAnimeResponse struct {
	Data struct {
		MALID    int64  `json:"mal_id"`
		Title    string `json:"title"`
		TitleEn  string `json:"title_english"`
		TitleJa  string `json:"title_japanese"`
		Type     string `json:"type"`
		Source   string `json:"source"`
		Rating   string `json:"rating"`
		Episodes *int   `json:"episodes"`
		Duration string `json:"duration"`
		Status   string `json:"status"`
		Aired    struct {
			From *string `json:"from"`
			To   *string `json:"to"`
		} `json:"aired"`
		Broadcast struct {
			Day      string `json:"day"`
			Time     string `json:"time"`
			Timezone string `json:"timezone"`
			String   string `json:"string"`
		} `json:"broadcast"`
		Genres       []jikanEntity `json:"genres"`
		Themes       []jikanEntity `json:"themes"`
		Demographics []jikanEntity `json:"demographics"`
		Studios      []jikanEntity `json:"studios"`
		Licensors    []jikanEntity `json:"licensors"`
		Producers    []jikanEntity `json:"producers"`
		Score        float64       `json:"score"`
		Synopsis     string        `json:"synopsis"`
	} `json:"data"`
}

type jikanEntity struct {
	Name string `json:"name"`
}

// 时长格式如 "24 min per ep" 或 "1 hr 55 min"
var reDurationMin = regexp.MustCompile(`(\d+)\s*min`)
var reDurationHr = regexp.MustCompile(`(\d+)\s*hr`)

// parseDuration 从 Jikan 的时长描述里提取分钟数
func parseDuration(s string) int {
	minutes := 0
	if m := reDurationHr.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		minutes += h * 60
	}
	if m := reDurationMin.FindStringSubmatch(s); m != nil {
		v, _ := strconv.Atoi(m[1])
		minutes += v
	}
	return minutes
}

// GetAnime 获取一部番剧的完整元数据
func (s *JikanService) GetAnime(ctx context.Context, animeID int64) (*model.Anime, error) {
	var resp jikanAnimeResponse
	url := fmt.Sprintf("%s/anime/%d", s.baseURL, animeID)
	if err := s.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	d := resp.Data

	anime := &model.Anime{
		MALID:           d.MALID,
		TitleDefault:    d.Title,
		TitleEn:         d.TitleEn,
		TitleJa:         d.TitleJa,
		Type:            d.Type,
		Source:          d.Source,
		Rating:          d.Rating,
		Episodes:        d.Episodes,
		EpisodeDuration: parseDuration(d.Duration),
		AirStatus:       model.AirStatus(d.Status),
		Genres:          entityNames(d.Genres),
		Themes:          entityNames(d.Themes),
		Demographics:    entityNames(d.Demographics),
		Studios:         entityNames(d.Studios),
		Licensors:       entityNames(d.Licensors),
		Producers:       entityNames(d.Producers),
		Synopsis:        d.Synopsis,
		// Rx 级作品 Jikan 不返回 explicit 标记，按分级判断
		IsAdult: strings.HasPrefix(d.Rating, "Rx"),
	}

	// 全站 0 分视为未评分
	if d.Score > 0 {
		score := d.Score
		anime.ScoreAvg = &score
	}

	if d.Aired.From != nil {
		if t, err := time.Parse(time.RFC3339, *d.Aired.From); err == nil {
			anime.AirStart = &t
		}
	}
	if d.Aired.To != nil {
		if t, err := time.Parse(time.RFC3339, *d.Aired.To); err == nil {
			anime.AirEnd = &t
		}
	}

	// 优先用结构化的档期字段，缺失时回退到解析描述串
	if d.Broadcast.Day != "" && d.Broadcast.Time != "" {
		if b := utils.ParseBroadcast(fmt.Sprintf("%s at %s", d.Broadcast.Day, d.Broadcast.Time)); b.Day != "" {
			anime.AirDay = b.Day
			anime.AirTime = b.Time
			anime.AirTz = d.Broadcast.Timezone
		}
	} else if d.Broadcast.String != "" {
		b := utils.ParseBroadcast(d.Broadcast.String)
		anime.AirDay = b.Day
		anime.AirTime = b.Time
		anime.AirTz = b.Tz
	}

	anime.UpdatedAt = time.Now()
	return anime, nil
}

func entityNames(entities []jikanEntity) []string {
	if len(entities) == 0 {
		return nil
	}
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, e.Name)
	}
	return names
}
