package reward

import (
	"testing"

	"neuropulse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressClamped(t *testing.T) {
	th := models.DefaultThresholds()

	assert.Equal(t, 0.0, Progress(0, th, models.TierSmall))
	assert.Equal(t, 60.0, Progress(3, th, models.TierSmall))
	assert.Equal(t, 100.0, Progress(5, th, models.TierSmall))
	assert.Equal(t, 100.0, Progress(5000, th, models.TierSmall))
	assert.Equal(t, 0.0, Progress(-3, th, models.TierSmall))
	assert.Equal(t, 0.0, Progress(3, th, models.RewardTier("huge")))
}

func TestAchieved(t *testing.T) {
	th := models.DefaultThresholds()

	assert.False(t, Achieved(4, th, models.TierSmall))
	assert.True(t, Achieved(5, th, models.TierSmall))
	assert.False(t, Achieved(24, th, models.TierMedium))
	assert.True(t, Achieved(100, th, models.TierLarge))
}

func TestClaim(t *testing.T) {
	th := models.DefaultThresholds()

	t.Run("achieved tier consumes threshold", func(t *testing.T) {
		total, msg, err := Claim(7, th, models.TierSmall)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, Message(models.TierSmall), msg)
	})

	t.Run("not achieved has no effect", func(t *testing.T) {
		total, msg, err := Claim(4, th, models.TierSmall)
		assert.ErrorIs(t, err, ErrNotAchieved)
		assert.Equal(t, 4, total)
		assert.Empty(t, msg)
	})

	t.Run("unknown tier", func(t *testing.T) {
		total, _, err := Claim(40, th, models.RewardTier("huge"))
		assert.ErrorIs(t, err, ErrUnknownTier)
		assert.Equal(t, 40, total)
	})

	t.Run("exact threshold lands on zero", func(t *testing.T) {
		total, _, err := Claim(25, th, models.TierMedium)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})
}

func TestEvaluate(t *testing.T) {
	statuses := Evaluate(25, models.DefaultThresholds())
	require.Len(t, statuses, 3)

	assert.Equal(t, models.TierSmall, statuses[0].Tier)
	assert.True(t, statuses[0].Achieved)
	assert.Equal(t, 100.0, statuses[1].Progress)
	assert.True(t, statuses[1].Achieved)
	assert.Equal(t, 25.0, statuses[2].Progress)
	assert.False(t, statuses[2].Achieved)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(models.DefaultThresholds()))

	bad := models.DefaultThresholds()
	bad.Medium.Threshold = 0
	assert.ErrorIs(t, Validate(bad), ErrInvalidThreshold)

	untitled := models.DefaultThresholds()
	untitled.Large.Title = ""
	assert.ErrorIs(t, Validate(untitled), ErrInvalidThreshold)
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("medium")
	require.NoError(t, err)
	assert.Equal(t, models.TierMedium, tier)

	_, err = ParseTier("MEDIUM")
	assert.ErrorIs(t, err, ErrUnknownTier)
}
