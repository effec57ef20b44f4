package main

import (
	"os"

	"ai-chat/backend/internal/app"
)

func main() {
	os.Exit(app.Run())
}
