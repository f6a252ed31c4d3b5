package logic

import (
	"strings"
	"testing"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	notifier := &fakeNotifier{}
	logic := NewCommentLogic(db, v, notifier)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)
	donor := createProfile(t, db, "捐赠人", model.RoleDonor)
	visitor := Actor{ProfileID: donor.ID, Role: model.RoleDonor}

	campaign := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)

	t.Run("空内容", func(t *testing.T) {
		err := logic.CreateComment(&model.Comment{CampaignID: campaign.ID, Body: "  "}, visitor)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("不可见项目不能留言", func(t *testing.T) {
		draft := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusDraft, false)
		err := logic.CreateComment(&model.Comment{CampaignID: draft.ID, Body: "加油"}, visitor)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("留言原文完整入库", func(t *testing.T) {
		// 超出通知预览长度的长留言也完整保存
		body := strings.Repeat("加油", 120)
		comment := model.Comment{CampaignID: campaign.ID, Body: body}
		require.NoError(t, logic.CreateComment(&comment, visitor))
		assert.Equal(t, donor.ID, comment.AuthorID)

		var stored model.Comment
		require.NoError(t, db.First(&stored, comment.ID).Error)
		assert.Equal(t, body, stored.Body)
		assert.Len(t, notifier.comments, 1)
	})
}

func TestGetCampaignComments(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	logic := NewCommentLogic(db, v, nil)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)
	donor := createProfile(t, db, "捐赠人", model.RoleDonor)
	visitor := Actor{ProfileID: donor.ID, Role: model.RoleDonor}
	campaign := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)

	for i := 0; i < 3; i++ {
		require.NoError(t, logic.CreateComment(&model.Comment{CampaignID: campaign.ID, Body: "加油"}, visitor))
	}

	comments, total, err := logic.GetCampaignComments(campaign.ID, visitor, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, comments, 2)

	// 草稿项目的留言对公共访问者不可见
	draft := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusDraft, false)
	_, _, err = logic.GetCampaignComments(draft.ID, visitor, 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
