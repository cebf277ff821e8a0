package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "utsav/pkg/domain-errors"
)

var now = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func TestNew_Contact(t *testing.T) {
	msg, err := New("m-1", Input{
		Kind:  KindContact,
		Name:  "Asha Menon",
		Email: "Asha@Example.com",
		Body:  "When do gates open?",
	}, now)
	require.NoError(t, err)

	assert.Equal(t, KindContact, msg.Kind)
	assert.Equal(t, "asha@example.com", msg.Email)
	assert.NotEmpty(t, msg.DedupeKey)
}

func TestNew_ValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		in   Input
	}{
		{"bad email", Input{Kind: KindContact, Name: "A", Email: "nope", Body: "hi"}},
		{"contact without body", Input{Kind: KindContact, Name: "A", Email: "a@b.co"}},
		{"contact without name", Input{Kind: KindContact, Email: "a@b.co", Body: "hi"}},
		{"expo without business", Input{Kind: KindExpo, Name: "A", Email: "a@b.co"}},
		{"influencer without links", Input{Kind: KindInfluencer, Email: "a@b.co"}},
		{"influencer with blank links", Input{Kind: KindInfluencer, Email: "a@b.co", SocialLinks: []string{"  ", ""}}},
		{"unknown kind", Input{Kind: "fanmail", Email: "a@b.co"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("m-1", tc.in, now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestNew_InfluencerNameOptional(t *testing.T) {
	msg, err := New("m-1", Input{
		Kind:        KindInfluencer,
		Email:       "riya.s@example.com",
		SocialLinks: []string{"https://instagram.com/riya"},
	}, now)
	require.NoError(t, err)
	assert.Empty(t, msg.Name)
	assert.Equal(t, []string{"https://instagram.com/riya"}, msg.SocialLinks)
}

func TestDedupeKey_StableAcrossRetries(t *testing.T) {
	in := Input{Kind: KindContact, Name: "Asha", Email: "asha@example.com", Body: "hello"}

	a, err := New("m-1", in, now)
	require.NoError(t, err)
	b, err := New("m-2", in, now.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, a.DedupeKey, b.DedupeKey)

	in.Body = "different question"
	c, err := New("m-3", in, now)
	require.NoError(t, err)
	assert.NotEqual(t, a.DedupeKey, c.DedupeKey)
}

func TestDedupeKey_DistinguishesKinds(t *testing.T) {
	contact, err := New("m-1", Input{Kind: KindContact, Name: "A", Email: "a@b.co", Body: "x"}, now)
	require.NoError(t, err)
	expo, err := New("m-2", Input{Kind: KindExpo, Name: "A", Email: "a@b.co", BusinessName: "x"}, now)
	require.NoError(t, err)

	assert.NotEqual(t, contact.DedupeKey, expo.DedupeKey)
}
