// Package suggestions holds the built-in redirection ideas.
package suggestions

import (
	"strings"

	"neuropulse/internal/models"
)

type Group struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
}

// Groups are shown next to the impulse list, keyed by category.
var Groups = map[models.Category][]Group{
	models.CategoryExplorer: {
		{Title: "Creative spark", Items: []string{
			"Write down an idea for a video or a piece of marketing content",
			"Make a note about a new business idea",
			"Sketch a simple prototype of a new product",
			"Brainstorm and write down 5 new ideas",
		}},
		{Title: "Learning and growth", Items: []string{
			"Read one chapter of an educational book",
			"Watch a short educational video",
			"Sign up for an online course",
			"Write notes on something you learned recently",
		}},
	},
	models.CategoryLover: {
		{Title: "Human connections", Items: []string{
			"Write a personal message to a client or partner",
			"Call a friend or family member and ask how they are",
			"Suggest a coffee with a potential business partner",
			"Write a positive review for someone who deserves it",
		}},
		{Title: "Outreach", Items: []string{
			"Write a LinkedIn post that mentions others",
			"Reply to comments under your content",
			"Reach out to a new person in your industry",
			"Invite someone to a podcast or interview",
		}},
	},
	models.CategoryAchiever: {
		{Title: "Physical activity", Items: []string{
			"Do 10-20 push-ups",
			"Take a short walk or workout",
			"Hold a 1-minute plank",
			"Do 25 squats",
		}},
		{Title: "Business progress", Items: []string{
			"Make one extra cold call",
			"Send an offer to a potential client",
			"Finish one small task from your list",
			"Set a concrete goal for tomorrow",
		}},
	},
}

// Presets are offered during onboarding.
var Presets = map[models.Category][]string{
	models.CategoryExplorer: {
		"Read an article on an interesting topic",
		"Watch a documentary",
		"Draw or sketch something",
		"Write down an idea for a creative project",
		"Find a new educational podcast",
		"Solve a puzzle or riddle",
		"Learn a new word in a foreign language",
		"Make a playlist of inspiring songs",
		"Sign up for an online course",
		"Write a short poem or story",
	},
	models.CategoryLover: {
		"Call someone close to you",
		"Write a letter or message to a friend",
		"Plan a meeting with someone important",
		"Offer help to someone in need",
		"Prepare a surprise for a loved one",
		"Listen to someone without interrupting",
		"Thank someone for something nice",
		"Invite friends to spend time together",
		"Write a list of things you are grateful for",
		"Do something nice for yourself",
	},
	models.CategoryAchiever: {
		"Set a new goal to achieve",
		"Make an action plan for the coming week",
		"Read an article about personal growth",
		"Do a short workout",
		"Tidy up the space around you",
		"Finish a task you keep postponing",
		"Learn a new practical skill",
		"Plan a budget or savings",
		"List your strengths",
		"Do something that challenges you",
	},
}

type Match struct {
	Category models.Category `json:"category"`
	Group    string          `json:"group,omitempty"`
	Action   string          `json:"action"`
	IsPreset bool            `json:"isPreset"`
}

// Search filters grouped suggestions and presets. An empty category matches
// all categories; query is a case-insensitive substring.
func Search(category models.Category, query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Match
	for _, c := range models.Categories {
		if category != "" && category != c {
			continue
		}
		for _, g := range Groups[c] {
			for _, item := range g.Items {
				if q == "" || strings.Contains(strings.ToLower(item), q) {
					out = append(out, Match{Category: c, Group: g.Title, Action: item})
				}
			}
		}
		for _, item := range Presets[c] {
			if q == "" || strings.Contains(strings.ToLower(item), q) {
				out = append(out, Match{Category: c, Action: item, IsPreset: true})
			}
		}
	}
	return out
}
