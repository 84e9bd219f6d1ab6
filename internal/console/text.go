package console

const (
	title = "Two-Round Trust Game"

	identifierPrompt = "Enter SONA ID: "

	roundOneHeading = "Round 1: Player A (Trustor) Starts with $%d"
	roundOneIntro   = `Player A automatically sends the full $%d.
Player B receives $%d (tripled).`
	returnPrompt = "Player B: How much do you want to return to Player A? [0-%d]: "

	roundTwoHeading = "Round 2: Player B Now Becomes the Trustor"
	roundTwoIntro   = `After round 1, Player A has $%d.
Player B starts this round with $%d.`
	sendPrompt = "Player B: How much do you want to send to Player A? [0-%d]: "

	resultsHeading = "Final Earnings After Both Rounds"
	thanks         = "🎉 Thank you for participating in this two-round trust game!"

	separator = "--------------------------------------------------"
)
