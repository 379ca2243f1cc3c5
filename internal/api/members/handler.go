package members

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/members"
	"membership-app/internal/domain/memberships"

	"github.com/gin-gonic/gin"
)

func GetCurrentMember(c *gin.Context) {
	email := c.GetString("email")
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var member members.Member
	if err := database.DB.
		Where("email = ?", email).
		First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	var current *memberships.Membership
	var m memberships.Membership
	err := database.DB.
		Preload("Plan").
		Where("member_id = ? AND status IN ?", member.ID,
			[]memberships.Status{memberships.StatusActive, memberships.StatusFrozen,
				memberships.StatusPendingPayment}).
		Order("created_at DESC").
		First(&m).Error
	if err == nil {
		current = &m
	}

	now := time.Now()
	resp := MeResponse{
		Member: MemberDTO{
			ID:         member.ID,
			Email:      member.Email,
			Name:       member.Name,
			Lastname:   member.Lastname,
			Tel:        stringPtrIfNotEmpty(member.Tel),
			Role:       member.Role,
			IsVerified: member.IsVerified,
		},
		Billing: BillingDTO{
			Membership: BuildMembershipDTO(current),
			Trial:      BuildTrialDTO(now, member.TrialStartAt, member.TrialEndAt),
		},
	}

	c.JSON(http.StatusOK, resp)
}

func stringPtrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing token"})
		return
	}

	var t members.VerificationToken
	if err := database.DB.Where("token = ?", token).First(&t).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		return
	}

	if err := database.DB.Model(&members.Member{}).Where("id = ?", t.MemberID).Update("is_verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify member"})
		return
	}

	database.DB.Delete(&t)

	redirectURL := "http://localhost:5173/signin"
	c.Redirect(http.StatusTemporaryRedirect, redirectURL)
}
