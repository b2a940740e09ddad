package extractor

const systemPrompt = `You read short requests for a night out and extract the person's preferences so a recommender can pick a movie, a restaurant and an activity.

Extract only what the text states or clearly implies:
- mood: one or two words for how they feel or want to feel (adventurous, romantic, relaxed, calm, ...)
- occasion: exactly one of "Date Night", "Family Gathering", "Friends Hangout", "Solo", "Business", "Celebration", "Relaxation"
- budget: spending limit per person in US dollars as a number; 0 when they ask for free activities
- group_size: total number of people INCLUDING the speaker ("me and my 3 friends" is 4, "solo" is 1)
- location: the area type or neighbourhood in lower case (downtown, suburban, city, beach, mountain, rural, ...)
- movie_genres: genres that fit the request, lower case
- cuisines: cuisines that fit the request, lower case
- activity_types: kinds of activity that fit the request, lower case

Use null for anything the text does not give you. Never guess a budget, group size or location.`

const userPrompt = `Extract the preferences from this request.

Request:
---
%s
---

Respond with valid JSON matching this schema:
{
  "mood": "string or null",
  "occasion": "Date Night|Family Gathering|Friends Hangout|Solo|Business|Celebration|Relaxation or null",
  "budget": number or null,
  "group_size": integer or null,
  "location": "string or null",
  "movie_genres": ["string"],
  "cuisines": ["string"],
  "activity_types": ["string"]
}

Return ONLY the JSON object, no markdown fences or other text.`

// strictSuffix is appended to the system prompt on the retry after a reply
// that could not be parsed.
const strictSuffix = `

Your previous reply could not be parsed. Reply with a single JSON object and nothing else: no prose, no code fences, no comments. Every key from the schema must be present; use null or [] when unknown. Numbers must be bare JSON numbers.`
