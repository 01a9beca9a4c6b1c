package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/agentscrape/models"
)

const listingHTML = `<html><body>
<div class="grid">
  <div class="agent-card">
    <a href="/profile/jane-doe"><img alt=" Jane Doe " src="https://cdn.example.com/jane.jpg"></a>
    <div class="meta"><span>Realtor</span><span>Austin, TX</span></div>
  </div>
  <div class="agent-card">
    <a href="https://onereal.com/profile/sam-lee?ref=search"><img alt="Sam Lee" data-src="/img/sam.jpg"></a>
    <p>Denver, CO</p>
  </div>
  <div class="agent-card">
    <a href="/profile/jane-doe">View profile</a>
  </div>
  <a href="/about">About</a>
</div>
</body></html>`

func TestParseListing(t *testing.T) {
	agents, err := ParseListing(listingHTML, "https://onereal.com")
	require.NoError(t, err)
	require.Len(t, agents, 2)

	assert.Equal(t, models.AgentRecord{
		Name:       "Jane Doe",
		ImageURL:   "https://cdn.example.com/jane.jpg",
		Location:   "Austin, TX",
		ProfileURL: "https://onereal.com/profile/jane-doe",
	}, agents[0])

	assert.Equal(t, models.AgentRecord{
		Name:       "Sam Lee",
		ImageURL:   "https://onereal.com/img/sam.jpg",
		Location:   "Denver, CO",
		ProfileURL: "https://onereal.com/profile/sam-lee?ref=search",
	}, agents[1])
}

func TestParseListing_NoAgents(t *testing.T) {
	agents, err := ParseListing(`<html><body><p>No results</p></body></html>`, "https://onereal.com")
	require.NoError(t, err)
	assert.Empty(t, agents)
}

const profileHTML = `<html><head><title>Jane Doe | Real</title></head><body>
<h1>Jane Doe</h1>
<div class="agent-location">Austin, TX</div>
<a href="tel:+15551234567">(555) 123-4567</a>
<a href="mailto:jane@example.com">Get In Touch</a>
<a href="mailto:jane@example.com?subject=hi">jane@example.com</a>
<div class="flex"><span>License #:</span><div class="break-words">SA-778899</div></div>
<span class="font-telegraf">Languages: English, Spanish, </span>
<a href="https://onereal.com/janedoe" target="_blank">My site</a>
<a href="https://facebook.com/janedoe">fb</a>
<a href="https://instagram.com/janedoe">ig</a>
<div class="bio-text">Helping Austin families since 2010.</div>
<img class="profile-photo" alt="Jane Doe" src="/img/jane.jpg">
<section><h3>My Specialities</h3><ul><li>Luxury Homes</li><li>First-time Buyers</li></ul></section>
<div class="years-active">12 years</div>
<div class="office-name">Real Broker Austin</div>
</body></html>`

func TestParseProfile(t *testing.T) {
	rec, err := ParseProfile(profileHTML, "https://onereal.com/profile/jane-doe")
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", rec.Name)
	assert.Equal(t, "Austin, TX", rec.Location)
	assert.Equal(t, "(555) 123-4567", rec.Phone)
	assert.Equal(t, "jane@example.com", rec.Email)
	assert.Equal(t, "SA-778899", rec.License)
	assert.Equal(t, []string{"English", "Spanish"}, rec.Languages)
	assert.Equal(t, "https://onereal.com/janedoe", rec.Website)
	assert.Equal(t, "https://facebook.com/janedoe", rec.Facebook)
	assert.Equal(t, "https://instagram.com/janedoe", rec.Instagram)
	assert.Equal(t, "Helping Austin families since 2010.", rec.Bio)
	assert.Equal(t, "https://onereal.com/img/jane.jpg", rec.ImageURL)
	assert.Equal(t, []string{"Luxury Homes", "First-time Buyers"}, rec.Specialties)
	assert.Equal(t, "12 years", rec.YearsExperience)
	assert.Equal(t, "Real Broker Austin", rec.Office)
	assert.Equal(t, "https://onereal.com/profile/jane-doe", rec.ProfileURL)
}

func TestParseProfile_Fallbacks(t *testing.T) {
	html := `<html><head><title> Sam Lee </title></head><body>
<a href="tel:5550001111"></a>
<a href="mailto:sam@example.com?subject=hello">Get In Touch</a>
<p>License #: CO-123</p>
</body></html>`

	rec, err := ParseProfile(html, "https://onereal.com/profile/sam-lee")
	require.NoError(t, err)

	assert.Equal(t, "Sam Lee", rec.Name)
	assert.Equal(t, "5550001111", rec.Phone)
	assert.Equal(t, "sam@example.com", rec.Email)
	assert.Equal(t, "CO-123", rec.License)
	assert.Nil(t, rec.Languages)
	assert.Nil(t, rec.Specialties)
}

func TestParseProfile_BlankPageIsEmpty(t *testing.T) {
	rec, err := ParseProfile(`<html><body></body></html>`, "https://onereal.com/profile/x")
	require.NoError(t, err)
	assert.True(t, rec.IsEmpty())
}

const rosterHTML = `<html><body>
<div id="agents-list">
  <div class="agent-card">
    <h3>Jane Doe</h3>
    <p><span class="label">Email:</span> jane@example.com</p>
    <p><span class="label">Phone:</span> 555-123-4567</p>
    <p><span class="label">Licence:</span> SA-778899</p>
  </div>
  <div class="agent-card">
    <h3>Sam Lee</h3>
    <p>Email: sam@example.com</p>
    <p>Phone: (555) 000-1111</p>
    <p>License: CO-123</p>
  </div>
  <div class="agent-card"><p><span class="label">Email:</span> nobody@example.com</p></div>
</div>
</body></html>`

func TestParseRoster(t *testing.T) {
	agents, err := ParseRoster(rosterHTML)
	require.NoError(t, err)
	require.Len(t, agents, 2)

	assert.Equal(t, models.AgentRecord{
		Name: "Jane Doe", Email: "jane@example.com", Phone: "555-123-4567", License: "SA-778899",
	}, agents[0])
	assert.Equal(t, models.AgentRecord{
		Name: "Sam Lee", Email: "sam@example.com", Phone: "(555) 000-1111", License: "CO-123",
	}, agents[1])
}

func TestParseRoster_FallbackCards(t *testing.T) {
	html := `<html><body><div class="agentBox"><h2>Pat Kim</h2><span>Phone: 555 222 3333</span></div></body></html>`

	agents, err := ParseRoster(html)
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, "Pat Kim", agents[0].Name)
	assert.Equal(t, "555 222 3333", agents[0].Phone)
}

func TestLineAfter(t *testing.T) {
	assert.Equal(t, "a@x.com", lineAfter("Email: a@x.com\nPhone: 1", "email:"))
	assert.Equal(t, "1", lineAfter("Email: a@x.com\r\nPhone: 1", "phone:"))
	assert.Equal(t, "", lineAfter("nothing here", "email:"))
}
