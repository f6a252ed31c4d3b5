package logic

import (
	"testing"
	"time"

	"github.com/boring-ventures/minka-sub002/internal/apperr"
	"github.com/boring-ventures/minka-sub002/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaign(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	logic := NewCampaignLogic(db, v)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)
	donor := createProfile(t, db, "捐赠人", model.RoleDonor)

	t.Run("非发起人无权创建", func(t *testing.T) {
		campaign := model.Campaign{Title: "测试项目", GoalAmount: decimal.NewFromInt(1000)}
		err := logic.CreateCampaign(&campaign, Actor{ProfileID: donor.ID, Role: model.RoleDonor})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("校验目标金额", func(t *testing.T) {
		campaign := model.Campaign{Title: "测试项目", GoalAmount: decimal.Zero}
		err := logic.CreateCampaign(&campaign, Actor{ProfileID: organizer.ID, Role: model.RoleOrganizer})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("派生字段强制归零", func(t *testing.T) {
		campaign := model.Campaign{
			Title:      "测试项目",
			GoalAmount: decimal.NewFromInt(1000),
			// 客户端提交的派生字段与状态一律忽略
			CollectedAmount:  decimal.NewFromInt(500),
			DonorCount:       7,
			PercentageFunded: 50,
			Status:           model.CampaignStatusActive,
			Verified:         true,
		}
		err := logic.CreateCampaign(&campaign, Actor{ProfileID: organizer.ID, Role: model.RoleOrganizer})
		require.NoError(t, err)
		assert.Equal(t, model.CampaignStatusDraft, campaign.Status)
		assert.False(t, campaign.Verified)
		assert.True(t, campaign.CollectedAmount.IsZero())
		assert.Equal(t, 0, campaign.DonorCount)
		assert.Equal(t, 0, campaign.PercentageFunded)
		assert.Equal(t, organizer.ID, campaign.OrganizerID)
	})
}

func TestUpdateCampaignFrozenAfterSubmit(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	logic := NewCampaignLogic(db, v)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)
	owner := Actor{ProfileID: organizer.ID, Role: model.RoleOrganizer}

	draft := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusDraft, false)
	updated, err := logic.UpdateCampaign(draft.ID, &model.Campaign{Title: "新标题"}, owner)
	require.NoError(t, err)

	var stored model.Campaign
	require.NoError(t, db.First(&stored, updated.ID).Error)
	assert.Equal(t, "新标题", stored.Title)

	// 进入审核后内容冻结
	pending := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusPending, false)
	_, err = logic.UpdateCampaign(pending.ID, &model.Campaign{Title: "改标题"}, owner)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestGetCampaignsVisibility(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	logic := NewCampaignLogic(db, v)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)
	other := createProfile(t, db, "另一发起人", model.RoleOrganizer)

	createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)
	createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusDraft, false)
	createCampaign(t, db, other.ID, "1000", model.CampaignStatusDraft, false)
	createCampaign(t, db, other.ID, "1000", model.CampaignStatusActive, false) // 上线但未过审

	// 公共访问者只能看到已审核通过的公开项目
	_, total, err := logic.GetCampaigns(Actor{}, "", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// 发起人额外看到自己的全部项目
	_, total, err = logic.GetCampaigns(Actor{ProfileID: organizer.ID, Role: model.RoleOrganizer}, "", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	// 管理员看到全部
	_, total, err = logic.GetCampaigns(Actor{ProfileID: 99, Role: model.RoleAdmin}, "", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 4, total)
}

func TestGetCampaignsFilters(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	logic := NewCampaignLogic(db, v)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)

	medical := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)
	education := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)
	require.NoError(t, db.Model(education).Updates(map[string]interface{}{
		"category": "教育", "location": "北京",
	}).Error)

	campaigns, total, err := logic.GetCampaigns(Actor{}, "医疗", "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, campaigns, 1)
	assert.Equal(t, medical.ID, campaigns[0].ID)

	campaigns, total, err = logic.GetCampaigns(Actor{}, "教育", "北京", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, campaigns, 1)
	assert.Equal(t, education.ID, campaigns[0].ID)
}

func TestDueCampaigns(t *testing.T) {
	db := newTestDB(t)
	v := NewVerificationLogic(db, nil)
	logic := NewCampaignLogic(db, v)
	organizer := createProfile(t, db, "发起人", model.RoleOrganizer)
	now := time.Now()

	// 已过截止时间
	expired := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)
	past := now.Add(-time.Hour)
	require.NoError(t, db.Model(expired).Update("deadline", &past).Error)

	// 已达目标金额
	funded := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)
	require.NoError(t, db.Model(funded).Update("collected_amount", decimal.NewFromInt(1000)).Error)

	// 未到期：有未来截止时间且未达标
	running := createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)
	future := now.Add(24 * time.Hour)
	require.NoError(t, db.Model(running).Update("deadline", &future).Error)

	// 无截止时间且未达标
	createCampaign(t, db, organizer.ID, "1000", model.CampaignStatusActive, true)

	due, err := logic.DueCampaigns(now)
	require.NoError(t, err)
	ids := make([]uint, 0, len(due))
	for _, c := range due {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []uint{expired.ID, funded.ID}, ids)
}
