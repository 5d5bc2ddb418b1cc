package alquran

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/minaretapp/minaret-data/internal/playback"
)

// SurahMeta describes one chapter.
type SurahMeta struct {
	Number         int    `json:"number"`
	Name           string `json:"name"`
	EnglishName    string `json:"english_name"`
	EnglishMeaning string `json:"english_meaning"`
	NumberOfAyahs  int    `json:"number_of_ayahs"`
	RevelationType string `json:"revelation_type"`
}

type surahMetaRaw struct {
	Number                 int    `json:"number"`
	Name                   string `json:"name"`
	EnglishName            string `json:"englishName"`
	EnglishNameTranslation string `json:"englishNameTranslation"`
	NumberOfAyahs          int    `json:"numberOfAyahs"`
	RevelationType         string `json:"revelationType"`
}

// Surahs lists all 114 chapters.
func (c *Client) Surahs(ctx context.Context) ([]SurahMeta, error) {
	raw, err := c.get(ctx, "/surah", nil)
	if err != nil {
		return nil, err
	}

	var rows []surahMetaRaw
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode surah list: %w", err)
	}

	metas := make([]SurahMeta, len(rows))
	for i, r := range rows {
		metas[i] = SurahMeta{
			Number:         r.Number,
			Name:           r.Name,
			EnglishName:    r.EnglishName,
			EnglishMeaning: r.EnglishNameTranslation,
			NumberOfAyahs:  r.NumberOfAyahs,
			RevelationType: r.RevelationType,
		}
	}
	return metas, nil
}

type editionSurah struct {
	Number        int    `json:"number"`
	EnglishName   string `json:"englishName"`
	NumberOfAyahs int    `json:"numberOfAyahs"`
	Ayahs         []struct {
		NumberInSurah int    `json:"numberInSurah"`
		Text          string `json:"text"`
		Audio         string `json:"audio"`
	} `json:"ayahs"`
}

// SurahPage fetches one window of a surah, pairing the recitation edition
// (audio URLs plus Arabic text) with a translation edition. Returns the
// verses and whether more remain past offset+len(verses).
func (c *Client) SurahPage(ctx context.Context, surah int, reciter, translation string, offset, limit int) ([]playback.Verse, bool, error) {
	if surah < 1 || surah > 114 {
		return nil, false, fmt.Errorf("surah out of range: %d", surah)
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	params := url.Values{}
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	path := fmt.Sprintf("/surah/%d/editions/%s,%s", surah, reciter, translation)

	raw, err := c.get(ctx, path, params)
	if err != nil {
		return nil, false, err
	}

	var editions []editionSurah
	if err := json.Unmarshal(raw, &editions); err != nil {
		return nil, false, fmt.Errorf("decode surah page: %w", err)
	}
	if len(editions) == 0 {
		return nil, false, fmt.Errorf("empty editions response for surah %d", surah)
	}

	audio := editions[0]
	verses := make([]playback.Verse, 0, len(audio.Ayahs))
	for i, a := range audio.Ayahs {
		v := playback.Verse{
			Surah:         audio.Number,
			NumberInSurah: a.NumberInSurah,
			SurahName:     audio.EnglishName,
			AudioURL:      a.Audio,
			Text:          a.Text,
		}
		// Editions are aligned ayah-for-ayah; a shorter translation just
		// leaves the field empty.
		if len(editions) > 1 && i < len(editions[1].Ayahs) {
			v.Translation = editions[1].Ayahs[i].Text
		}
		verses = append(verses, v)
	}

	more := offset+len(verses) < audio.NumberOfAyahs
	return verses, more, nil
}

// SurahSource adapts paged surah fetches to the playback queue's source
// interface. One instance is bound to a (surah, reciter) pair for the life
// of a playback session.
type SurahSource struct {
	client      *Client
	surah       int
	reciter     string
	translation string
	pageSize    int
}

// NewSurahSource builds a playback source for one surah.
func NewSurahSource(client *Client, surah int, reciter, translation string) *SurahSource {
	return &SurahSource{
		client:      client,
		surah:       surah,
		reciter:     reciter,
		translation: translation,
		pageSize:    DefaultPageSize,
	}
}

// NextPage fetches the window starting right after the loaded prefix.
func (s *SurahSource) NextPage(ctx context.Context, loaded int) ([]playback.Verse, bool, error) {
	return s.client.SurahPage(ctx, s.surah, s.reciter, s.translation, loaded, s.pageSize)
}

var _ playback.Source = (*SurahSource)(nil)
