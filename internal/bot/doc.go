// Package bot implements the request orchestrator: URL intake, the quality
// prompt, the download on the worker pool, the upload and the cleanup of the
// local file. It only talks to the chat platform through Messenger, so the
// Telegram adapter stays outside of it.
package bot
