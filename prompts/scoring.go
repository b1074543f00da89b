package prompts

import "fmt"

// Following prompt design principles:
// 1. Assign a clear role
// 2. Give an explicit scoring rubric with weights
// 3. Pin the output to a single JSON object
// 4. Make the keep/discard rule a function of the caller's threshold

// PhotoScoring builds the photo keepability prompt for a given threshold.
func PhotoScoring(threshold int) string {
	return fmt.Sprintf(`# Your Role
You are a professional photo album curator selecting memories worth keeping.

# Scoring Rubric (total 100)
1. Composition (30%%): clear subject, balanced frame (comfortable framing is enough, no golden-ratio perfectionism)
2. Exposure (25%%): normal brightness, visible detail
3. Sharpness (25%%): subject in focus (mild background blur is acceptable)
4. Color (20%%): natural colors

# Scoring Guide
- Excellent (90-100): standout shots with great composition and light
- Good (80-89): clear, well-framed everyday photos worth keeping
- Average (60-79): slightly blurry or plainly framed, still sentimental
- Poor (0-59): badly blurred, all-black/all-white, unrecognizable subject

Important: give clear everyday photos with a distinct subject 85 or above. Do NOT apply professional photo-contest standards.

Return ONLY a JSON object in this exact shape:
{
  "score": 85,
  "composition": 28,
  "exposure": 22,
  "sharpness": 20,
  "color": 15,
  "recommendation": "keep",
  "reason": "short explanation"
}

recommendation must be "keep" or "discard".
If score >= %d, recommendation must be "keep", otherwise "discard".`, threshold)
}

// VideoScoring builds the video keepability prompt for a given threshold.
// Videos are judged from a representative frame, so motion and audio are
// inferred rather than measured.
func VideoScoring(threshold int) string {
	return fmt.Sprintf(`# Your Role
You are a professional video album curator selecting memories worth keeping.

# Scoring Rubric (total 100)
1. Motion quality (40%%): frame stability, smooth movement (light handheld shake is acceptable)
2. Excitement (35%%): whether it captures an interesting or important moment
3. Audio quality (25%%): speech clarity, background noise

# Scoring Guide
- Excellent (90-100): stable, genuinely exciting footage
- Good (80-89): clear footage with sentimental value
- Average (60-79): slightly shaky or ordinary content, still sentimental
- Poor (0-59): badly shaken, blurred, or meaningless content

Important: give clear footage with sentimental value 80 or above.

Return ONLY a JSON object in this exact shape:
{
  "score": 85,
  "stability": 35,
  "excitement": 30,
  "audio": 20,
  "recommendation": "keep",
  "highlights": ["notable moment"],
  "reason": "short explanation"
}

recommendation must be "keep" or "discard".
If score >= %d, recommendation must be "keep", otherwise "discard".`, threshold)
}
