package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedecision/internal/datespec"
	"collegedecision/internal/model"
)

func TestDefault(t *testing.T) {
	list := Default()
	require.Len(t, list, 16)

	for _, u := range list {
		assert.NotEmpty(t, u.Name)
		assert.Equal(t, u.Domain, u.ID)
		_, err := datespec.Parse(u.NotificationRegular, u.Time)
		assert.NoError(t, err, u.Domain)
		_, err = datespec.Parse(u.NotificationEarly, u.Time)
		assert.NoError(t, err, u.Domain)
	}

	assert.Equal(t, "harvard.edu", list[0].Domain)
	assert.Equal(t, "19:00:00", list[0].Time)
	assert.Equal(t, "18:28:00", list[2].Time)
}

func TestResolve(t *testing.T) {
	u, err := Resolve(model.University{
		Name:                "Rice University",
		Domain:              "HTTPS://www.Rice.edu/",
		NotificationRegular: "28-03-25",
		Time:                "9:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "rice.edu", u.Domain)
	assert.Equal(t, "rice.edu", u.ID)
	assert.Equal(t, "09:30:00", u.Time)

	_, err = Resolve(model.University{Domain: "x.edu", NotificationRegular: "28-03-25"})
	assert.Error(t, err, "name is required")

	_, err = Resolve(model.University{
		Name:                "Bad Colour",
		Domain:              "x.edu",
		NotificationRegular: "28-03-25",
		Gradient:            &model.Gradient{From: "blue", To: "#fff"},
	})
	assert.Error(t, err)

	_, err = Resolve(model.University{
		Name:                "Slashes",
		Domain:              "not a domain/with/path",
		NotificationRegular: "28-03-25",
	})
	assert.Error(t, err, "domain must be a host name")
}

func TestParse_SkipsBadRecords(t *testing.T) {
	data := []byte(`
universities:
  - name: Good
    domain: good.edu
    notification_regular: "01-04-25"
  - domain: nameless.edu
    notification_regular: "01-04-25"
  - name: Good Again
    domain: WWW.GOOD.EDU
    notification_regular: "02-04-25"
  - name: Broken Date
    domain: broken.edu
    notification_regular: "soon"
    priority: 2
    gradient: {from: "#a51c30", to: "#1e1e1e"}
`)
	list, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "good.edu", list[0].Domain)
	assert.Equal(t, "broken.edu", list[1].Domain)
	require.NotNil(t, list[1].Priority)
	assert.Equal(t, 2, *list[1].Priority)
	require.NotNil(t, list[1].Gradient)
	assert.Equal(t, "#a51c30", list[1].Gradient.From)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte("universities: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("universities: [\n"))
	assert.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "u.yaml")
	require.NoError(t, os.WriteFile(path, []byte("universities:\n  - name: A\n    domain: a.edu\n    notification_regular: \"01-01-25\"\n"), 0o600))

	list, err := Load(path)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	list, err = Load("")
	require.NoError(t, err)
	assert.Len(t, list, 16)
}
