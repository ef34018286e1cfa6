package analyzer

import (
	"strings"
)

// Point caps of the media rules
const (
	maxAltKeywordPoints = 20
	bytesPerMB          = 1024 * 1024
)

// ScoreMedia scores the SEO metadata of an image. Missing fields are
// reported as issues or recommendations, never as errors.
func ScoreMedia(asset MediaAsset, keywords KeywordConfig) ScoreResult {
	s := newScoreSheet()

	scoreAltText(s, asset.AltText, keywords)
	scoreMediaTitle(s, asset.Title)
	scoreCaption(s, asset.Caption)
	scoreAlbum(s, asset.Album)
	scoreDimensions(s, asset.Width, asset.Height)
	scoreFileSize(s, asset.FileSize)

	return s.result(MediaGradeScale)
}

func scoreAltText(s *scoreSheet, alt string, keywords KeywordConfig) {
	if alt == "" {
		s.issue("Missing alt text")
		s.check(SeverityDanger, "✗ Missing alt text")
		return
	}

	n := runeLen(alt)
	switch {
	case n >= 30 && n <= 125:
		s.add(30)
		s.check(SeveritySuccess, "✓ Alt text length is optimal (%d characters)", n)
	case n >= 10 && n < 30:
		s.add(15)
		s.check(SeverityWarning, "⚠ Alt text is a bit short (%d characters)", n)
	default:
		s.add(5)
		s.check(SeverityDanger, "✗ Alt text length is not optimal (%d characters)", n)
	}

	tier, hits := keywords.matchTier(alt)
	if tier == nil {
		s.check(SeverityDanger, "✗ No keywords")
		if top := keywords.topPrimary(2); len(top) > 0 {
			s.recommend("❗ Add: %s", strings.Join(top, ", "))
		}
		return
	}

	s.add(min(tier.weight(keywords.Weights), maxAltKeywordPoints))
	s.check(tier.severity, "%s", tier.message(hits))
	if tier.advice != "" {
		s.recommend("%s", tier.advice)
	}
}

func scoreMediaTitle(s *scoreSheet, title string) {
	if title == "" {
		s.recommend("Add a title attribute (shown on hover)")
		s.check(SeverityWarning, "⚠ Title attribute recommended")
		return
	}

	n := runeLen(title)
	if n >= 20 && n <= 100 {
		s.add(15)
		s.check(SeveritySuccess, "✓ Title is optimal (%d characters)", n)
		return
	}
	s.add(10)
	s.check(SeverityInfo, "ℹ Title present but length is not optimal (%d characters)", n)
}

func scoreCaption(s *scoreSheet, caption string) {
	n := runeLen(caption)
	if n <= 20 {
		s.recommend("Add a caption describing the image (at least 50 characters)")
		s.check(SeverityWarning, "⚠ Detailed caption recommended")
		return
	}

	if n >= 50 {
		s.add(15)
		s.check(SeveritySuccess, "✓ Caption is detailed (%d characters)", n)
		return
	}
	s.add(10)
	s.check(SeverityInfo, "ℹ Caption present but a bit short (%d characters)", n)
}

func scoreAlbum(s *scoreSheet, album string) {
	if album == "" {
		s.recommend("Assign the image to an album")
		s.check(SeverityWarning, "⚠ Album assignment recommended")
		return
	}
	s.add(10)
	s.check(SeveritySuccess, "✓ Assigned to album %q", album)
}

func scoreDimensions(s *scoreSheet, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	switch {
	case width <= 1920 && height <= 1200:
		s.add(10)
		s.check(SeveritySuccess, "✓ Dimensions are suitable (%d×%dpx)", width, height)
	case width <= 2560 && height <= 1600:
		s.add(7)
		s.recommend("Resize the image to ≤1920px to speed up loading")
		s.check(SeverityInfo, "ℹ Image is slightly large (%d×%dpx)", width, height)
	default:
		s.add(3)
		s.issue("Image dimensions are too large")
		s.recommend("❗ Resize the image to ≤1920×1200px (currently %d×%dpx)", width, height)
		s.check(SeverityDanger, "✗ Image is too large (%d×%dpx)", width, height)
	}
}

func scoreFileSize(s *scoreSheet, size int64) {
	if size <= 0 {
		return
	}

	mb := float64(size) / bytesPerMB
	switch {
	case mb <= 0.2:
		s.add(10)
		s.check(SeveritySuccess, "✓ File size is optimal (%.2f MB)", mb)
	case mb <= 0.5:
		s.add(8)
		s.check(SeveritySuccess, "✓ File size is good (%.2f MB)", mb)
	case mb <= 1.0:
		s.add(5)
		s.recommend("Compress the image below 0.5MB (currently %.2f MB)", mb)
		s.check(SeverityInfo, "ℹ File size is acceptable (%.2f MB)", mb)
	case mb <= 2.0:
		s.add(2)
		s.issue("File is somewhat heavy")
		s.recommend("❗ Compress the image below 1MB (currently %.2f MB)", mb)
		s.check(SeverityWarning, "⚠ File is somewhat heavy (%.2f MB)", mb)
	default:
		s.issue("File is too heavy")
		s.recommend("❗❗ Compress the image below 1MB now (currently %.2f MB)", mb)
		s.check(SeverityDanger, "✗ File is too heavy (%.2f MB)", mb)
	}
}
