package alquran

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSurahServer serves a 12-ayah surah in windows, pairing audio and
// translation editions the way the upstream does.
func newSurahServer(t *testing.T, totalAyahs int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/surah/18/editions/ar.alafasy,en.asad")
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		n := limit
		if offset+n > totalAyahs {
			n = totalAyahs - offset
		}

		audio, translation := "", ""
		for i := 0; i < n; i++ {
			ayah := offset + i + 1
			if i > 0 {
				audio += ","
				translation += ","
			}
			audio += fmt.Sprintf(`{"numberInSurah":%d,"text":"ayah %d","audio":"https://cdn/audio/%d.mp3"}`, ayah, ayah, ayah)
			translation += fmt.Sprintf(`{"numberInSurah":%d,"text":"translation %d"}`, ayah, ayah)
		}

		fmt.Fprintf(w, `{"code":200,"status":"OK","data":[
			{"number":18,"englishName":"Al-Kahf","numberOfAyahs":%d,"ayahs":[%s]},
			{"number":18,"englishName":"Al-Kahf","numberOfAyahs":%d,"ayahs":[%s]}
		]}`, totalAyahs, audio, totalAyahs, translation)
	}))
}

func TestClient_SurahPage(t *testing.T) {
	srv := newSurahServer(t, 12)
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	verses, more, err := c.SurahPage(context.Background(), 18, "ar.alafasy", "en.asad", 0, 10)
	require.NoError(t, err)

	require.Len(t, verses, 10)
	assert.True(t, more)
	assert.Equal(t, 18, verses[0].Surah)
	assert.Equal(t, 1, verses[0].NumberInSurah)
	assert.Equal(t, "Al-Kahf", verses[0].SurahName)
	assert.Equal(t, "https://cdn/audio/1.mp3", verses[0].AudioURL)
	assert.Equal(t, "translation 1", verses[0].Translation)
}

func TestClient_SurahPageLastWindow(t *testing.T) {
	srv := newSurahServer(t, 12)
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	verses, more, err := c.SurahPage(context.Background(), 18, "ar.alafasy", "en.asad", 10, 10)
	require.NoError(t, err)

	require.Len(t, verses, 2)
	assert.False(t, more)
	assert.Equal(t, 11, verses[0].NumberInSurah)
	assert.Equal(t, 12, verses[1].NumberInSurah)
}

func TestClient_SurahOutOfRange(t *testing.T) {
	c := NewClient("http://unused", 600, nil)
	_, _, err := c.SurahPage(context.Background(), 115, "ar.alafasy", "en.asad", 0, 10)
	assert.Error(t, err)
}

func TestSurahSource_NextPage(t *testing.T) {
	srv := newSurahServer(t, 12)
	defer srv.Close()

	src := NewSurahSource(NewClient(srv.URL, 600, nil), 18, "ar.alafasy", "en.asad")

	items, more, err := src.NextPage(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, items, 10)
	assert.True(t, more)

	items, more, err = src.NextPage(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.False(t, more)
}

func TestClient_Surahs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/surah", r.URL.Path)
		w.Write([]byte(`{"code":200,"status":"OK","data":[
			{"number":1,"name":"سورة الفاتحة","englishName":"Al-Faatiha","englishNameTranslation":"The Opening","numberOfAyahs":7,"revelationType":"Meccan"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 600, nil)
	metas, err := c.Surahs(context.Background())
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "Al-Faatiha", metas[0].EnglishName)
	assert.Equal(t, "The Opening", metas[0].EnglishMeaning)
	assert.Equal(t, 7, metas[0].NumberOfAyahs)
}
