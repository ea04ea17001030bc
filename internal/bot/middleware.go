package bot

import (
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/config"
)

// AdminMiddleware creates a middleware that checks if the user is an admin.
func AdminMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return nil
			}

			if !cfg.IsAdmin(sender.ID) {
				log.Warn().
					Int64("user_id", sender.ID).
					Str("command", c.Text()).
					Msg("Non-admin attempted admin command")
				return c.Reply("❌ Permission denied: admin only")
			}

			return next(c)
		}
	}
}

// LoggingMiddleware logs each update with the time its handler took. Handler
// errors are logged at warn level and passed on to the bot's OnError.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			started := time.Now()
			err := next(c)

			ev := log.Debug()
			if err != nil {
				ev = log.Warn().Err(err)
			}
			if sender := c.Sender(); sender != nil {
				ev = ev.Int64("user_id", sender.ID).Str("username", sender.Username)
			}
			if chat := c.Chat(); chat != nil {
				ev = ev.Int64("chat_id", chat.ID)
			}
			ev.Str("text", c.Text()).
				Dur("duration", time.Since(started)).
				Msg("Handled update")

			return err
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = c.Reply("❌ Something went wrong, please try again later")
				}
			}()
			return next(c)
		}
	}
}
