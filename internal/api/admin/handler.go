package admin

import (
	"net/http"
	"time"

	"membership-app/database"
	"membership-app/internal/domain/members"
	"membership-app/internal/domain/memberships"

	"github.com/gin-gonic/gin"
)

type AdminMember struct {
	ID               uint       `json:"id"`
	Name             string     `json:"name"`
	Lastname         string     `json:"lastname"`
	Tel              string     `json:"tel"`
	Email            string     `json:"email"`
	Role             string     `json:"role"`
	IsVerified       bool       `json:"is_verified"`
	PlanName         *string    `json:"plan_name,omitempty"`
	MembershipStatus *string    `json:"membership_status,omitempty"`
	MembershipStart  *time.Time `json:"membership_start,omitempty"`
	MembershipEnd    *time.Time `json:"membership_end,omitempty"`
}

type AdminPayment struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	PlanName    *string `json:"plan_name,omitempty"`
	AmountEUR   float64 `json:"amount_eur"`
	Status      string  `json:"status"`
	PaymentType string  `json:"payment_type"`
	InvoiceID   *string `json:"invoice_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type AdminStats struct {
	TotalMembers      int            `json:"total_members"`
	ActiveMemberships int            `json:"active_memberships"`
	TotalRevenue      float64        `json:"total_revenue"`
	RecentRevenue     float64        `json:"recent_revenue"`
	MembersPerPlan    map[string]int `json:"members_per_plan"`
}

func ListAllMembers(c *gin.Context) {
	var all []members.Member
	err := database.DB.Find(&all).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load members"})
		return
	}

	// Latest membership per member, one query instead of N.
	var mships []memberships.Membership
	database.DB.Preload("Plan").Order("created_at ASC").Find(&mships)
	latest := map[uint]memberships.Membership{}
	for _, m := range mships {
		latest[m.MemberID] = m
	}

	var adminMembers []AdminMember
	for _, m := range all {
		entry := AdminMember{
			ID:         m.ID,
			Name:       m.Name,
			Lastname:   m.Lastname,
			Tel:        m.Tel,
			Email:      m.Email,
			Role:       m.Role,
			IsVerified: m.IsVerified,
		}
		if ms, ok := latest[m.ID]; ok {
			status := string(ms.Status)
			start := ms.StartDate
			end := ms.EndDate
			entry.MembershipStatus = &status
			entry.MembershipStart = &start
			entry.MembershipEnd = &end
			if ms.Plan != nil {
				entry.PlanName = &ms.Plan.Name
			}
		}
		adminMembers = append(adminMembers, entry)
	}

	c.JSON(http.StatusOK, adminMembers)
}

func ListAllPayments(c *gin.Context) {
	var payments []memberships.Payment
	err := database.DB.Preload("Member").Preload("Plan").Order("created_at DESC").Find(&payments).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load payments"})
		return
	}

	var result []AdminPayment
	for _, p := range payments {
		var planName *string
		if p.Plan != nil {
			planName = &p.Plan.Name
		}
		result = append(result, AdminPayment{
			ID:          p.ID,
			Email:       p.Member.Email,
			PlanName:    planName,
			AmountEUR:   float64(p.AmountCents) / 100,
			Status:      p.Status,
			PaymentType: p.PaymentType,
			InvoiceID:   p.StripeInvoiceID,
			CreatedAt:   p.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, result)
}

func GetAdminStats(c *gin.Context) {
	var stats AdminStats

	var totalMembers int64
	var activeMemberships int64
	var totalCents int64
	var recentCents int64

	database.DB.Model(&members.Member{}).Count(&totalMembers)
	database.DB.Model(&memberships.Membership{}).
		Where("status IN ?", []memberships.Status{memberships.StatusActive, memberships.StatusFrozen}).
		Count(&activeMemberships)
	database.DB.Model(&memberships.Payment{}).
		Where("status = ?", memberships.PaymentSucceeded).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&totalCents)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&memberships.Payment{}).
		Where("status = ? AND created_at >= ?", memberships.PaymentSucceeded, thirtyDaysAgo).
		Select("COALESCE(SUM(amount_cents), 0)").Scan(&recentCents)

	stats.TotalMembers = int(totalMembers)
	stats.ActiveMemberships = int(activeMemberships)
	stats.TotalRevenue = float64(totalCents) / 100
	stats.RecentRevenue = float64(recentCents) / 100

	type PlanCount struct {
		Name  *string
		Count int
	}
	var counts []PlanCount

	database.DB.
		Table("memberships").
		Select("plans.name, COUNT(memberships.id) as count").
		Joins("LEFT JOIN plans ON memberships.plan_id = plans.id").
		Where("memberships.status IN ?", []string{"active", "frozen"}).
		Group("plans.name").
		Scan(&counts)

	stats.MembersPerPlan = map[string]int{}
	for _, pc := range counts {
		name := "No Plan"
		if pc.Name != nil {
			name = *pc.Name
		}
		stats.MembersPerPlan[name] = pc.Count
	}

	c.JSON(http.StatusOK, stats)
}

func GetMemberDetails(c *gin.Context) {
	memberID := c.Param("id")

	var member members.Member
	if err := database.DB.First(&member, memberID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	var mships []memberships.Membership
	if err := database.DB.Preload("Plan").Where("member_id = ?", memberID).
		Order("created_at DESC").Find(&mships).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch memberships"})
		return
	}

	var payments []memberships.Payment
	if err := database.DB.Preload("Plan").Where("member_id = ?", memberID).
		Order("created_at DESC").Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member":      member,
		"memberships": mships,
		"payments":    payments,
	})
}
