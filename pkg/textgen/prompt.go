package textgen

import "fmt"

const systemPrompt = "You write complete, professional blog posts from a title and an excerpt. " +
	"You are fluent in web development and Tailwind CSS and return the post as HTML styled with Tailwind classes."

const promptTemplate = `Write a complete, professional blog post from the material below.

Title: %s
Excerpt: %s

Content guidelines:
1. Organize the post into clear sections with subheadings.
2. Back up key points with relevant data, statistics or case studies.
3. Keep a professional tone that is thoughtful but accessible.
4. Give readers practical insights or takeaways.
5. Address likely counterarguments.
6. Close with a summary and a memorable final thought.
7. Target roughly 1000 to 1500 words.

Formatting:
1. Structure the post with HTML tags such as <h2>, <p>, <ul>, <ol>, <li> and <blockquote>.
2. Style it with Tailwind CSS classes, for example:
   - headings: class="text-2xl font-bold mt-6 mb-4"
   - subheadings: class="text-xl font-semibold mt-4 mb-2"
   - paragraphs: class="mb-4"
   - lists: class="list-disc pl-5 mb-4" or class="list-decimal pl-5 mb-4"
   - quotes: class="border-l-4 border-gray-300 pl-4 italic my-4"
3. Keep the result readable on small and large screens.

Return only the HTML of the post body.`

// BuildPrompt renders the user prompt for a title and excerpt.
func BuildPrompt(title, excerpt string) string {
	return fmt.Sprintf(promptTemplate, title, excerpt)
}
