package telegram

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// The channel is the engine's Transport: plain sends, replies, photo and
// media-group sends, and invite-link creation for the staff group.

func (c *Channel) Send(ctx context.Context, chatID int64, text string) (int, error) {
	msg, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}
	return msg.MessageID, nil
}

func (c *Channel) Reply(ctx context.Context, chatID int64, messageID int, text string) error {
	params := tu.Message(tu.ID(chatID), text)
	params.ReplyParameters = &telego.ReplyParameters{MessageID: messageID}
	if _, err := c.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (c *Channel) SendPhoto(ctx context.Context, chatID int64, url, caption string) error {
	params := tu.Photo(tu.ID(chatID), tu.FileFromURL(url)).WithCaption(caption)
	if _, err := c.bot.SendPhoto(ctx, params); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

// SendMediaGroup sends an album; the caption rides on the first photo,
// which is how Telegram clients display album captions.
func (c *Channel) SendMediaGroup(ctx context.Context, chatID int64, urls []string, caption string) error {
	media := make([]telego.InputMedia, 0, len(urls))
	for i, url := range urls {
		photo := tu.MediaPhoto(tu.FileFromURL(url))
		if i == 0 {
			photo = photo.WithCaption(caption)
		}
		media = append(media, photo)
	}
	if _, err := c.bot.SendMediaGroup(ctx, tu.MediaGroup(tu.ID(chatID), media...)); err != nil {
		return fmt.Errorf("send media group: %w", err)
	}
	return nil
}

// CreateInvite creates a fresh single-member invite link for a group.
func (c *Channel) CreateInvite(ctx context.Context, chatID int64) (string, error) {
	link, err := c.bot.CreateChatInviteLink(ctx, &telego.CreateChatInviteLinkParams{
		ChatID:      tu.ID(chatID),
		MemberLimit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("create invite link: %w", err)
	}
	return link.InviteLink, nil
}
